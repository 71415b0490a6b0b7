// Package fingerprints stores the whitelist of live refresh token
// fingerprints. A fingerprint is created on login and replaced in place on
// every rotation, so an old value disappears the moment it is rotated away.
package fingerprints

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID int64, fingerprint string) error

	// Find returns common.ErrorNotFound when the fingerprint is not live.
	Find(ctx context.Context, fingerprint string) (*models.RefreshFingerprint, error)

	// CompareAndSwap replaces oldFP with newFP in one conditional write and
	// reports how many records changed. Zero means oldFP was no longer live.
	CompareAndSwap(ctx context.Context, oldFP, newFP string) (int64, error)
}
