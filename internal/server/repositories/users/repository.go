// Package users persists server-side account records.
package users

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/server/models"
)

// Repository describes the account store.
type Repository interface {
	// Create inserts a new account and returns it with the generated id.
	// A duplicate username fails with common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the account record, or common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
