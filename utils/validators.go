package utils

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations adds the API's struct tags to v.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("dateonly", isDateOnly); err != nil {
		return err
	}
	return nil
}

// isDateOnly accepts YYYY-MM-DD strings. Empty values are left to required.
func isDateOnly(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := ParseDate(s)
	return err == nil
}

var bindingOnce sync.Once

// RegisterBindingValidators installs the custom tags on gin's validator.
// It is safe to call more than once.
func RegisterBindingValidators() error {
	var err error
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			err = RegisterCustomValidations(v)
		}
	})
	return err
}
