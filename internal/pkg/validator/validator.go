package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// uidPattern matches the opaque user ids the identity provider mints.
var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Opaque user id validation
	validate.RegisterValidation("uid", func(fl validator.FieldLevel) bool {
		return uidPattern.MatchString(fl.Field().String())
	})
}

// IsUID reports whether s is a well-formed opaque user id.
func IsUID(s string) bool {
	return uidPattern.MatchString(s)
}

// Struct validates a struct and returns field -> message details
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	details := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		details["_"] = err.Error()
		return details
	}

	for _, fe := range validationErrors {
		details[fe.Field()] = messageForTag(fe)
	}
	return details
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uid":
		return "Must be a valid user id"
	case "min":
		return "Value is too small"
	case "max":
		return "Value is too large"
	default:
		return "Invalid value"
	}
}
