// Package conversations persists server-side conversations and their ordered
// message sequences. Every read is owner-scoped.
package conversations

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/server/models"
)

// Repository describes the conversation store.
type Repository interface {
	// Create inserts a conversation and returns it with the generated id.
	Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)

	// GetAllByOwner lists the owner's conversations, newest first.
	GetAllByOwner(ctx context.Context, ownerID string) ([]models.Conversation, error)

	// GetByID returns one conversation of the owner, or common.ErrNotFound.
	GetByID(ctx context.Context, id, ownerID string) (*models.Conversation, error)

	// DeleteByID removes a conversation and its messages, or common.ErrNotFound.
	DeleteByID(ctx context.Context, id, ownerID string) error

	// AddTurn appends a user/tutor message pair to the tail of the
	// conversation's sequence atomically: a failed turn stores nothing.
	AddTurn(ctx context.Context, userMsg, tutorMsg *models.Message) error

	// MessagesByConversation returns the ordered message sequence.
	MessagesByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}
