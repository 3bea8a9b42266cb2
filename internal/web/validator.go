package web

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks a request body that could not be read.
var ErrInvalidInput = errors.New("invalid input")

// Validator wraps go-playground/validator and reports the first failing
// field by its json name.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validator: v}
}

func (v *Validator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &account.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on '%s' validation", fe.Tag()),
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
