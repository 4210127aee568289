package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registration struct {
	FirstName string `json:"first_name" validate:"required,max=5"`
	Email     string `json:"email" validate:"required,email"`
	Note      string `json:"-" validate:"max=3"`
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(registration{FirstName: "", Email: "nope"})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "err = %v", err)
	require.Len(t, verrs, 2)
	assert.Equal(t, "first_name", verrs[0].Field())
	assert.Equal(t, "required", verrs[0].Tag())
	assert.Equal(t, "email", verrs[1].Field())
	assert.Equal(t, "email", verrs[1].Tag())
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, New().Validate(registration{FirstName: "Ana", Email: "ana@example.com"}))
}

func TestValidatePartial_OnlyNamedFields(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidatePartial(registration{Email: "ana@example.com"}, "Email"),
		"an empty first name is ignored when only Email is checked")

	err := v.ValidatePartial(registration{FirstName: "Anastasia"}, "FirstName")
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "err = %v", err)
	assert.Equal(t, "max", verrs[0].Tag())
	assert.Equal(t, "5", verrs[0].Param())
}
