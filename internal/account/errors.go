package account

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when signing up with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrAccountDisabled is returned when a deactivated user logs in.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrUserNotFound is returned when the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken is returned for a malformed, forged or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// FieldError describes a problem with one input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned when input fails validation.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}
