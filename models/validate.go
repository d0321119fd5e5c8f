package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator registers the "enum" tag, which accepts any field implementing
// IsValid() and rejects values outside the declared set.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumValue)
		return ok && e.IsValid()
	})
	return v
}
