package auth

import (
	"errors"
	"fmt"
)

// Reason tells apart the ways a presented token can be refused.
type Reason string

const (
	ReasonMalformed        Reason = "malformed"
	ReasonSignatureInvalid Reason = "signature invalid"
	ReasonExpired          Reason = "expired"
	ReasonKindMismatch     Reason = "kind mismatch"
	ReasonMissingHeader    Reason = "missing header"
	ReasonReused           Reason = "reused or unknown refresh token"
)

// AuthError is returned by every verification step. Callers compare it
// with errors.Is against the Err* sentinels below, which match on Reason.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}

var (
	ErrMalformed        = &AuthError{Reason: ReasonMalformed}
	ErrSignatureInvalid = &AuthError{Reason: ReasonSignatureInvalid}
	ErrExpired          = &AuthError{Reason: ReasonExpired}
	ErrKindMismatch     = &AuthError{Reason: ReasonKindMismatch}
	ErrMissingHeader    = &AuthError{Reason: ReasonMissingHeader}
	ErrRefreshReused    = &AuthError{Reason: ReasonReused}
)

// ErrSigningKeyMissing means the token manager was built without a secret.
var ErrSigningKeyMissing = errors.New("signing key missing")
