// Package validation configures struct validation for request payloads.
package validation

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nutritrack/nutritrack-go/internal/model"
)

// FieldError describes the first rule a payload field failed.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

// Validator validates request structs using their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports JSON field names and knows the
// gender and goal enumerations.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("gender", oneOf(model.Genders))
	_ = v.RegisterValidation("goal", oneOf(model.Goals))

	return &Validator{v: v}
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

// Struct validates s and returns the first failing field, or nil.
// A non-validation error (e.g. s is not a struct) is returned as-is.
func (v *Validator) Struct(s any) (*FieldError, error) {
	err := v.v.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil, err
	}

	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}, nil
}
