package utils

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
	})
	return validate
}

// ValidateStruct validates s using its `binding` tags, the same tags gin checks on bind.
func ValidateStruct(s interface{}) error {
	if err := GetValidator().Struct(s); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// FormatValidationError turns validator errors into one readable message.
func FormatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		param := e.Param()

		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "required_if":
			message = fmt.Sprintf("%s is required when %s", field, param)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, param)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "eqfield":
			message = fmt.Sprintf("%s must match %s", field, param)
		case "uuid":
			message = fmt.Sprintf("%s must be a valid id", field)
		default:
			message = fmt.Sprintf("%s failed %s validation", field, e.Tag())
		}
		messages = append(messages, message)
	}

	return errors.New(strings.Join(messages, "; "))
}
