package auth

import (
	"errors"
	"strings"
)

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", &AuthError{Reason: ReasonMissingHeader, Err: errors.New("authorization header required")}
	}

	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &AuthError{Reason: ReasonMissingHeader, Err: errors.New("bearer token required")}
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &AuthError{Reason: ReasonMissingHeader, Err: errors.New("bearer token required")}
	}
	return token, nil
}

type Verifier interface {
	VerifyAccess(raw string) (AccessToken, error)
	VerifyRefresh(raw string) (RefreshToken, error)
}

// Authenticator is the per-request gate in front of protected operations.
type Authenticator struct {
	verifier Verifier
}

func NewAuthenticator(v Verifier) *Authenticator {
	return &Authenticator{verifier: v}
}

func (a *Authenticator) Access(header string) (AccessToken, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return AccessToken{}, err
	}
	return a.verifier.VerifyAccess(raw)
}

func (a *Authenticator) Refresh(header string) (RefreshToken, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return RefreshToken{}, err
	}
	return a.verifier.VerifyRefresh(raw)
}
