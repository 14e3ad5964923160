package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Principal is the authenticated owner of a request
type Principal struct {
	Email string
	Roles string
}

// Credentials represents login credentials
type Credentials struct {
	Email    string
	Password string
}

// ErrorType represents the type of authentication error
type ErrorType string

const (
	ErrInvalidCredentials ErrorType = "invalid_credentials"
	ErrUnauthorized       ErrorType = "unauthorized"
)

// Error represents an authentication-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Type == t
}

func unauthorized(msg string, err error) error {
	return &Error{Type: ErrUnauthorized, Message: msg, Err: err}
}

// Authenticator checks login credentials
type Authenticator interface {
	// Authenticate validates credentials and returns a Principal if successful
	Authenticate(ctx context.Context, creds Credentials) (*Principal, error)
}

// TokenCache maps access tokens to owner emails.
type TokenCache interface {
	// Get returns the email cached for token. ok is false on a miss.
	Get(ctx context.Context, token string) (email string, ok bool, err error)
	// Set caches email for token for at most ttl.
	Set(ctx context.Context, token, email string, ttl time.Duration) error
}

// OwnerResolver turns an Authorization header into the owner's email.
type OwnerResolver interface {
	ResolveOwnerEmail(ctx context.Context, authorization string) (string, error)
}
