// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and profile lookups and mints the
// access/refresh pair handed out on login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/password"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type TokenIssuer interface {
	Issue(userID int64, kind auth.Kind) (string, error)
}

type Fingerprinter interface {
	Fingerprint(token string) string
}

// seams for tests; argon2id with production parameters is slow
var (
	hashPassword   = password.Hash
	verifyPassword = password.Verify
)

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	tokens        TokenIssuer
	fingerprinter Fingerprinter
	log           logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, fp Fingerprinter, log logging.Logger) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		tokens:        tokens,
		fingerprinter: fp,
		log:           log.With("module", "users"),
	}
}

// Signup registers a user. A taken email yields common.ErrorAlreadyExists,
// both from the pre-check and from a unique violation on a racing insert.
func (s *UserService) Signup(ctx context.Context, name, email, pass string) (*models.User, error) {
	hash, err := hashPassword(pass)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user, err = repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			metrics.SignupAttemptsTotal.WithLabelValues(metrics.StatusFailure).Inc()
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	metrics.SignupAttemptsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and, on success, issues a pair and whitelists
// the fingerprint of its refresh token. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, pass string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusFailure).Inc()
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := verifyPassword(pass, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, common.ErrorInvalidCredentials
	}

	pair, err := issuePair(s.tokens, user.ID)
	if err != nil {
		return nil, err
	}

	fp := s.fingerprinter.Fingerprint(pair.RefreshToken)
	if err := s.repomanager.Fingerprints(s.db).Create(ctx, user.ID, fp); err != nil {
		return nil, fmt.Errorf("error storing refresh fingerprint: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Profile returns the public view of userID, or common.ErrorNotFound if the
// account no longer exists.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func issuePair(issuer TokenIssuer, userID int64) (*TokenPair, error) {
	access, err := issuer.Issue(userID, auth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token for user %d: %w", userID, err)
	}
	refresh, err := issuer.Issue(userID, auth.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token for user %d: %w", userID, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(auth.KindAccess)).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(auth.KindRefresh)).Inc()
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
