package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// AuthError is returned when credentials are rejected or a session is
// invalid. The UI layer decides how to surface it.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth %s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is returned when a record query fails (transport or query).
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is returned when an insert, update, or delete is rejected.
type MutationError struct {
	Collection string
	Op         string
	Err        error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}
func (e *MutationError) Unwrap() error { return e.Err }

// ProfileCreationError is returned when post-signup profile provisioning
// fails. The account exists but its profile row does not.
type ProfileCreationError struct {
	UserID string
	Err    error
}

func (e *ProfileCreationError) Error() string {
	return fmt.Sprintf("create profile for %s: %v", e.UserID, e.Err)
}
func (e *ProfileCreationError) Unwrap() error { return e.Err }

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}
