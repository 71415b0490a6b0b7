package models

import "time"

// RefreshFingerprint is the only server-side trace of a live refresh token:
// a keyed digest of the token string owned by UserID.
type RefreshFingerprint struct {
	ID          int64
	UserID      int64
	Fingerprint string
	CreatedAt   time.Time
}
