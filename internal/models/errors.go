package models

import "fmt"

// AuthError is returned when a calendar source rejects the supplied credentials,
// either because they are invalid, expired or lack the required scope.
type AuthError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s rejected the credentials (HTTP %d): %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s rejected the credentials: %v", e.Source, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError is returned on transport failures and API-side failures.
type NetworkError struct {
	Source string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Source, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
