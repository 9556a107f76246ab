package errors

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
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

// Invalid wraps a payload validation failure as ErrValidation, listing each rejected field.
func Invalid(err error, message string) *Error {
	out := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var failures validator.ValidationErrors
	if errors.As(err, &failures) {
		out.Fields = make(map[string]string, len(failures))
		for _, failure := range failures {
			out.Fields[failure.Field()] = failure.Tag()
		}
	}
	return out
}
