// Package remote implements the HTTP client for the SpeakFluent backend.
// The backend is an external collaborator: this package only speaks its
// wire contract and maps transport failures onto the shared error taxonomy
// (common.ErrRemoteUnavailable, common.ErrUnauthorized, common.ErrNotFound),
// so callers can decide on fallback without inspecting HTTP details.
package remote

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/client/models"
)

// Client is the remote backend surface the client services depend on.
// All calls honor context cancellation and the configured request timeout;
// a call that does not complete in time fails with common.ErrRemoteUnavailable.
type Client interface {
	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// Login exchanges credentials for an access token.
	Login(ctx context.Context, username, password string) (string, error)

	// Register creates an account and returns the created user.
	Register(ctx context.Context, username, password string) (*models.User, error)

	// ListConversations returns the caller's conversations, newest first.
	ListConversations(ctx context.Context, token string) ([]models.Conversation, error)

	// CreateConversation creates a conversation owned by the caller.
	CreateConversation(ctx context.Context, token, title, scenario, level string) (*models.Conversation, error)

	// DeleteConversation removes a conversation owned by the caller.
	DeleteConversation(ctx context.Context, token, id string) error

	// History returns the ordered message sequence of one conversation.
	History(ctx context.Context, token, id string) ([]models.Message, error)

	// SendAudio submits one encoded spoken turn and returns the assistant reply.
	SendAudio(ctx context.Context, token, conversationID string, payload *audio.Payload, scenario string) (*models.ChatReply, error)
}
