package account

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const requiredMessage = "Username and password are required"

var fieldMessages = map[string]string{
	"username.min":    "Username must be 3-20 characters",
	"username.max":    "Username must be 3-20 characters",
	"username.alnum_": "Username may only contain letters, digits, '.', '-' and '_'",
	"password.min":    "Password must be at least 6 characters",
	"password.max":    "Password must be at most 72 characters",
	"newPassword.min": "Password must be at least 6 characters",
	"newPassword.max": "Password must be at most 72 characters",
	"email.email":     "Email address is invalid",
	"displayName.max": "Display name must be at most 64 characters",
	"theme.oneof":     "Theme must be light or dark",
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("alnum_", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '_' || r == '-' || r == '.':
			default:
				return false
			}
		}
		return true
	})
	return validate
}

// validationError converts validator output into a *ValidationError.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range errs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if fe.Tag() == "required" {
			msg, ok = fe.Field()+" is required", true
			if fe.Field() == "username" || fe.Field() == "password" {
				msg = requiredMessage
				verr.Message = requiredMessage
			}
		}
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Error: msg})
	}
	if verr.Message == "" && len(verr.Fields) > 0 {
		verr.Message = verr.Fields[0].Error
	}
	return verr
}
