package server

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// filenamePattern is the accepted shape of asset filenames.
var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)

func validFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}

	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.validate.Struct(i)
}

// notBlank fails strings that are empty after trimming whitespace.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
