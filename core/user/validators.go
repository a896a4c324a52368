package user

import (
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	// custom validation tags & texts
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)
}

// allRolesValidation checks that provided user roles are all in AllRoles.
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	known := append([]string(nil), AllRoles...)
	sort.Strings(known)
	for _, role := range roles {
		i := sort.SearchStrings(known, role)
		if i >= len(known) || known[i] != role {
			return false
		}
	}
	return true
}
