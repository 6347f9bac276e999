package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is returned by Struct and Var. It matches ErrValidation with errors.Is.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

func (e ValidationErrors) Unwrap() error {
	return ErrValidation
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	return v.toValidationErrors(err), false
}

// Struct validates i and returns ValidationErrors when any rule fails.
func (v *Validator) Struct(i any) error {
	if errs, ok := v.Validate(i); !ok {
		return ValidationErrors(errs)
	}

	return nil
}

// Var validates a single value, reporting failures under name.
func (v *Validator) Var(name string, field any, tag string) error {
	err := v.validate.Var(field, tag)
	if err == nil {
		return nil
	}

	errs := v.toValidationErrors(err)
	for i := range errs {
		errs[i].Field = name
		errs[i].Message = strings.Replace(errs[i].Message, "value", name, 1)
	}

	return ValidationErrors(errs)
}

func (v *Validator) toValidationErrors(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{
			Code:    "INVALID",
			Message: err.Error(),
		}}
	}

	errs := make([]ValidationError, 0, len(validationErrors))
	for _, err := range validationErrors {
		field := err.Field()
		if field == "" {
			field = "value"
		}

		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must not exceed %s characters", field, err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		errs = append(errs, ValidationError{
			Field:   field,
			Code:    strings.ToUpper(err.Tag()),
			Message: message,
		})
	}

	return errs
}
