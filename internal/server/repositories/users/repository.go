package users

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository is the user half of the credential store.
type Repository interface {
	// Create inserts the user and fills in the generated ID. A duplicate
	// email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the full record, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the public projection, or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.PublicUser, error)
}
