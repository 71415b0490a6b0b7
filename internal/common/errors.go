// Package common defines shared sentinel errors used across the server and
// client layers of SessionKeeper. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInvalidCredentials = errors.New("invalid email or password")
)
