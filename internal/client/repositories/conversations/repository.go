// Package conversations persists conversations and their ordered message
// sequences in the local cache. All users' data lives in one shared store,
// so every read is owner-filtered at the SQL layer.
package conversations

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/client/models"
)

// Repository describes the local conversation store.
type Repository interface {
	// Create inserts a conversation row (messages are added separately).
	Create(ctx context.Context, conv *models.Conversation) error

	// GetAllByOwner lists conversations owned by owner, newest first,
	// without message bodies.
	GetAllByOwner(ctx context.Context, owner string) ([]models.Conversation, error)

	// GetByID returns one conversation owned by owner, without messages.
	// Unknown id (or a different owner) fails with common.ErrNotFound.
	GetByID(ctx context.Context, id, owner string) (*models.Conversation, error)

	// DeleteByID removes a conversation and its messages.
	// Unknown id (or a different owner) fails with common.ErrNotFound.
	DeleteByID(ctx context.Context, id, owner string) error

	// AddMessage appends a message to the tail of the conversation's sequence.
	AddMessage(ctx context.Context, conversationID string, m *models.Message) error

	// UpdateMessage replaces the text/pronunciation/feedback of an existing
	// message in place, keeping its position in the sequence.
	UpdateMessage(ctx context.Context, m *models.Message) error

	// MessagesByConversation returns the ordered message sequence.
	MessagesByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}
