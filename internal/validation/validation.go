// Package validation checks request payloads and reports problems per field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"campusforum/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients can map errors to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(field.String()) != ""
	})
	_ = v.RegisterValidation("runemin", func(fl validator.FieldLevel) bool {
		return runeBound(fl, func(n, bound int) bool { return n >= bound })
	})
	_ = v.RegisterValidation("runemax", func(fl validator.FieldLevel) bool {
		return runeBound(fl, func(n, bound int) bool { return n <= bound })
	})
	return v
}

// runeBound measures trimmed strings in characters, not bytes.
func runeBound(fl validator.FieldLevel, ok func(n, bound int) bool) bool {
	var bound int
	if _, err := fmt.Sscanf(fl.Param(), "%d", &bound); err != nil {
		return false
	}
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	return ok(utf8.RuneCountInString(strings.TrimSpace(field.String())), bound)
}

// Struct validates s against its `validate` tags. Failures come back as a
// VALIDATION_ERROR carrying one message per offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return models.NewValidationError(err.Error())
	}

	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = message(fe)
	}
	return models.NewFieldsValidationError(fields)
}

// Merge folds additional field errors into err, which may be nil.
func Merge(err error, fields map[string]string) error {
	if len(fields) == 0 {
		return err
	}
	var appErr *models.AppError
	if err != nil && errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		if appErr.Fields == nil {
			appErr.Fields = make(map[string]string)
		}
		for k, v := range fields {
			if _, seen := appErr.Fields[k]; !seen {
				appErr.Fields[k] = v
			}
		}
		return appErr
	}
	if err != nil {
		return err
	}
	return models.NewFieldsValidationError(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "min", "runemin":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max", "runemax":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "eqfield":
		return "Password fields didn't match."
	case "gt", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "url":
		return "Enter a valid URL."
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}
