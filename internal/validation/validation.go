// Package validation runs go-playground/validator rules over request and model
// structs and turns failures into per-field messages keyed by JSON name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"task-tracker/backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var labels = map[string]string{
	"dueDate": "Due date",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return v
}

// Fields validates s and returns the first failing rule for each field, or
// nil when s is valid.
func Fields(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"request": "Invalid request"}
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = Message(fe.Field(), fe.Tag(), fe.Param())
	}
	return fields
}

// Struct is Fields wrapped into an apperr validation error.
func Struct(s any) error {
	if fields := Fields(s); len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Var validates a single value against tag, reporting the message for field.
func Var(field string, value any, tag string) (string, bool) {
	err := validate.Var(value, tag)
	if err == nil {
		return "", true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return Message(field, fe.Tag(), fe.Param()), false
	}
	return Label(field) + " is invalid", false
}

func Message(field, tag, param string) string {
	label := Label(field)
	switch tag {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, param)
	default:
		return label + " is invalid"
	}
}

func Label(field string) string {
	if label, ok := labels[field]; ok {
		return label
	}
	if field == "" {
		return field
	}
	runes := []rune(field)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
