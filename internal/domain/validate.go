package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the round configuration, wrapping failures in ErrInvalidConfig.
func (c RoundConfig) Validate() error {
	return checkStruct(c, ErrInvalidConfig)
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Validate checks the sign-in form, wrapping failures in ErrInvalidCredentials.
func (c Credentials) Validate() error {
	if err := checkStruct(c, ErrInvalidCredentials); err != nil {
		return err
	}
	// validator's max counts runes; bcrypt counts bytes.
	if len(c.Password) > MaxPasswordBytes {
		return fmt.Errorf("%w: Password allows at most %d bytes", ErrInvalidCredentials, MaxPasswordBytes)
	}
	return nil
}

func checkStruct(v any, sentinel error) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s needs at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s allows at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
