// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterTagNameFunc(jsonFieldName)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// decimalValue lets numeric tags such as gte=0 apply to decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

// Validation tags for common fields
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []FieldError {
	var fieldErrors []FieldError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return fieldErrors
}

// ValidateRequest validates s and folds any field errors into a single 400.
func ValidateRequest(s interface{}) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}

	fieldErrors := GetValidationErrors(err)
	if len(fieldErrors) == 0 {
		return ValidationError(err.Error())
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fe.Message)
	}
	return ValidationError(strings.Join(messages, ", "))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Please add a " + e.Field()
	case "email":
		return "Please add a valid email"
	case "url":
		return "Please use a valid URL with HTTP or HTTPS"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " can not be more than " + e.Param() + " characters"
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "latitude", "longitude":
		return e.Field() + " is out of range"
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
