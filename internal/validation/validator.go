// Package validation wraps go-playground/validator for struct tag checks.
//
// Field names in errors are the json names ("first_name"), so messages can
// use the same names clients send.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks every tagged field of i.
func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// ValidatePartial checks only the named struct fields (Go names, not json
// names) of i.
func (v *Validator) ValidatePartial(i interface{}, fields ...string) error {
	return v.v.StructPartial(i, fields...)
}
