package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

// RotationService exchanges a verified refresh token for a new pair exactly
// once. The old fingerprint is replaced by a single conditional write, so of
// two concurrent rotations of the same token only one can succeed.
type RotationService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	tokens        TokenIssuer
	fingerprinter Fingerprinter
	log           logging.Logger
}

func NewRotationService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, fp Fingerprinter, log logging.Logger) *RotationService {
	return &RotationService{
		db:            db,
		repomanager:   m,
		tokens:        tokens,
		fingerprinter: fp,
		log:           log.With("module", "rotation"),
	}
}

// Refresh rotates token. Unknown, already rotated and foreign fingerprints,
// as well as a lost compare-and-swap, all yield auth.ErrRefreshReused.
func (s *RotationService) Refresh(ctx context.Context, token auth.RefreshToken) (*TokenPair, error) {
	repo := s.repomanager.Fingerprints(s.db)
	oldFP := s.fingerprinter.Fingerprint(token.Raw)

	rec, err := repo.Find(ctx, oldFP)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, token, "fingerprint not live")
		}
		metrics.RefreshRotationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, fmt.Errorf("error searching refresh fingerprint: %w", err)
	}
	if rec.UserID != token.UserID {
		return nil, s.reject(ctx, token, "fingerprint owned by another user")
	}

	pair, err := issuePair(s.tokens, token.UserID)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}

	n, err := repo.CompareAndSwap(ctx, oldFP, s.fingerprinter.Fingerprint(pair.RefreshToken))
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, fmt.Errorf("error rotating refresh fingerprint: %w", err)
	}
	if n == 0 {
		return nil, s.reject(ctx, token, "lost rotation race")
	}

	metrics.RefreshRotationsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.log.Debug(ctx, "refresh token rotated", "user_id", token.UserID)
	return pair, nil
}

func (s *RotationService) reject(ctx context.Context, token auth.RefreshToken, why string) error {
	metrics.RefreshRotationsTotal.WithLabelValues(metrics.StatusReused).Inc()
	s.log.Warn(ctx, "refresh token rejected", "user_id", token.UserID, "cause", why)
	return auth.ErrRefreshReused
}
