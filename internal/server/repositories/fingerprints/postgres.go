package fingerprints

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, fingerprint string) error {
	query :=
		`INSERT INTO refresh_fingerprints (user_id, fingerprint)
		 VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, fingerprint); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, fingerprint string) (*models.RefreshFingerprint, error) {
	query :=
		`SELECT id, user_id, fingerprint, created_at FROM refresh_fingerprints
		 WHERE fingerprint = $1
		 `

	fp := &models.RefreshFingerprint{}
	err := r.db.QueryRowContext(ctx, query, fingerprint).Scan(&fp.ID, &fp.UserID, &fp.Fingerprint, &fp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return fp, nil
}

func (r *PostgresRepository) CompareAndSwap(ctx context.Context, oldFP, newFP string) (int64, error) {
	query :=
		`UPDATE refresh_fingerprints SET fingerprint = $1
		 WHERE fingerprint = $2
		 `

	res, err := r.db.ExecContext(ctx, query, newFP, oldFP)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
