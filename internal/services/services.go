// Package services holds the business rules of the dev API server. Handlers
// call services; services call repositories.
package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrUserExists         = errors.New("email or username already registered")
	// ErrInvalidInput is wrapped with the reason a payload was rejected.
	ErrInvalidInput = errors.New("invalid input")
)
