// Package users persists offline credentials in the local cache. Password
// hashes are bcrypt; plaintext never touches the database.
package users

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/client/models"
)

// Repository describes the local credential store.
type Repository interface {
	// Create inserts a new account record. A duplicate username fails with
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername returns the account record for username, or
	// common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
