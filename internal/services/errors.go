// Package services holds the business rules between the HTTP handlers
// and the persistence layer.
package services

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a lockout window is in effect.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// revoked or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrNotFound is returned when the requested record does not exist
	// or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrSelfDemotion is returned when an admin tries to drop their own
	// Admin role.
	ErrSelfDemotion = errors.New("cannot remove your own admin access")
)

// BusinessError is a rule violation with a user-facing message,
// mapped to 400 by the handlers.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError creates a BusinessError.
func NewBusinessError(message string) *BusinessError {
	return &BusinessError{Message: message}
}

// IsBusinessError reports whether err is a rule violation.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
