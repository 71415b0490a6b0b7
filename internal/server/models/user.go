// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the full identity record, including the password hash. It never
// leaves the service layer.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the projection returned by profile lookups.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
