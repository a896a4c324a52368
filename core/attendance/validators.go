package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	// custom validation tags & texts
	statusTag  = "attendancestatus"
	statusText = "must be one of: present, absent, late, excused"

	dayTag  = "day"
	dayText = "must be a calendar date in YYYY-MM-DD form"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(dayTag, dayValidation)
	core.RegisterCustomTranslation(validate, translator, dayTag, dayText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return ValidStatus(fl.Field().String())
}

func dayValidation(fl validator.FieldLevel) bool {
	_, err := ParseDay(fl.Field().String())
	return err == nil
}
