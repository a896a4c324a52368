package school

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	// custom validation tags & texts
	semesterTag  = "semester"
	semesterText = "invalid semester"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(semesterTag, semesterValidation)
	core.RegisterCustomTranslation(validate, translator, semesterTag, semesterText)
}

func semesterValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range Semesters {
		if val == s {
			return true
		}
	}
	return false
}
