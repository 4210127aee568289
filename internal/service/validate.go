package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/validation"
)

var validate = validation.New()

// checkFields runs the validate tags of v, restricted to the named Go fields
// when any are given, and turns the first failure into an
// apperror.ErrValidation. requiredMsg supplies the message for a missing or
// blank field, keyed by its json name.
func checkFields(v interface{}, requiredMsg func(field string) string, fields ...string) error {
	var err error
	if len(fields) == 0 {
		err = validate.Validate(v)
	} else {
		err = validate.ValidatePartial(v, fields...)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(fe.Field(), requiredMsg(fe.Field()))
	case "max":
		return apperror.ValidationFailed(fe.Field(),
			fmt.Sprintf("%s must be %s characters or less", fe.Field(), fe.Param()))
	case "email":
		return apperror.ValidationFailed(fe.Field(), "Invalid email address")
	default:
		return apperror.ValidationFailed(fe.Field(), "Invalid "+fe.Field())
	}
}

func always(msg string) func(string) string {
	return func(string) string { return msg }
}

// trimmed dereferences an optional input; absent reads as "".
func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func parseDate(field, v string) (time.Time, error) {
	t, err := model.ParseDate(strings.TrimSpace(v))
	if err != nil {
		return t, apperror.ValidationFailed(field, msgInvalidDate)
	}
	return t, nil
}

// isAppError reports whether err is an expected domain error (not found,
// conflict, ...) that should reach the client without being logged.
func isAppError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
