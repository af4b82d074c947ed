package accounts

import (
	"errors"

	"github.com/geocoder89/accounts/internal/domain/user"
)

var (
	ErrNotFound = user.ErrNotFound
	// ErrAuthFailed is returned for every credential failure; callers cannot
	// tell an unknown email from a wrong password.
	ErrAuthFailed      = errors.New("unable to authenticate with provided credentials")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func errEmailRequired() error {
	return &ValidationError{Field: "email", Rule: "required", Message: "is required"}
}

func errEmailTaken() error {
	return &ValidationError{Field: "email", Rule: "unique", Message: "user with this email already exists"}
}
