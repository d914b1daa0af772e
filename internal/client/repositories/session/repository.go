// Package session persists the active session record and the per-install
// token-signing secret in the metadata table.
package session

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/client/models"
)

// Repository describes the persisted session record. At most one session is
// stored at a time; Save overwrites any previous record.
type Repository interface {
	// Save stores the session record, replacing the previous one.
	Save(ctx context.Context, s models.Session) error

	// Get returns the stored session, or common.ErrNotFound when no session
	// is persisted.
	Get(ctx context.Context) (*models.Session, error)

	// Clear removes the stored session. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error

	// TokenSecret returns the per-install secret used to sign offline
	// tokens, generating and persisting one on first use.
	TokenSecret(ctx context.Context) ([]byte, error)
}
