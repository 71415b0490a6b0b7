// Package auth issues and verifies the HS256 access/refresh token pair,
// derives refresh fingerprints and extracts bearer credentials.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the expiry profile of a token and is embedded in it.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

// Subject is what a verified token vouches for.
type Subject struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessToken is a verified token of kind access.
type AccessToken struct {
	Subject
}

// RefreshToken is a verified token of kind refresh. Raw is kept because
// rotation fingerprints the exact string the client presented.
type RefreshToken struct {
	Subject
	Raw string
}

type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*TokenManager)

// WithClock replaces time.Now for both issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) {
		m.now = now
	}
}

func NewTokenManager(secret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, ErrSigningKeyMissing
	}

	m := &TokenManager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *TokenManager) ttl(kind Kind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return m.accessTTL, nil
	case KindRefresh:
		return m.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// Issue mints a signed token for userID. Every token carries a random jti,
// so two tokens minted within the same second still differ.
func (m *TokenManager) Issue(userID int64, kind Kind) (string, error) {
	ttl, err := m.ttl(kind)
	if err != nil {
		return "", err
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks well-formedness, signature, expiry and kind, in that order.
func (m *TokenManager) Verify(raw string, expected Kind) (Subject, error) {
	c := &claims{}

	_, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Subject{}, classify(err)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Subject{}, &AuthError{Reason: ReasonMalformed, Err: err}
	}

	if c.Kind != expected {
		return Subject{}, &AuthError{
			Reason: ReasonKindMismatch,
			Err:    fmt.Errorf("got %q, want %q", c.Kind, expected),
		}
	}

	s := Subject{UserID: userID, ExpiresAt: c.ExpiresAt.Time}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	return s, nil
}

func (m *TokenManager) VerifyAccess(raw string) (AccessToken, error) {
	s, err := m.Verify(raw, KindAccess)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Subject: s}, nil
}

func (m *TokenManager) VerifyRefresh(raw string) (RefreshToken, error) {
	s, err := m.Verify(raw, KindRefresh)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Subject: s, Raw: raw}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &AuthError{Reason: ReasonSignatureInvalid, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Reason: ReasonExpired, Err: err}
	default:
		return &AuthError{Reason: ReasonMalformed, Err: err}
	}
}
