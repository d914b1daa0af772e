package services

import (
	"context"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
	"github.com/speakfluent/speakfluent/internal/server/audiostore"
	"github.com/speakfluent/speakfluent/internal/server/models"
	"github.com/speakfluent/speakfluent/internal/server/repositories/conversations"
)

// userTurnText is stored for the user side of a chat turn. The server does
// not transcribe audio, so the stored text is a generic voice-message marker.
const userTurnText = "[voice message]"

// ConversationService implements owner-scoped conversation CRUD and the chat
// turn: validate the received clip, optionally archive it, store the user
// turn, and generate the tutor's reply.
type ConversationService struct {
	repo    conversations.Repository
	archive audiostore.Store
	logger  logging.Logger
}

func NewConversationService(repo conversations.Repository, archive audiostore.Store, logger logging.Logger) *ConversationService {
	return &ConversationService{repo: repo, archive: archive, logger: logger}
}

func (s *ConversationService) List(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	return s.repo.GetAllByOwner(ctx, ownerID)
}

func (s *ConversationService) Create(ctx context.Context, ownerID, title, scenario, level string) (*models.Conversation, error) {
	if title == "" {
		return nil, common.ErrValidation
	}
	return s.repo.Create(ctx, &models.Conversation{
		Title:    title,
		Scenario: scenario,
		Level:    level,
		OwnerID:  ownerID,
	})
}

func (s *ConversationService) Get(ctx context.Context, id, ownerID string) (*models.Conversation, []models.Message, error) {
	conv, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.repo.MessagesByConversation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *ConversationService) Delete(ctx context.Context, id, ownerID string) error {
	return s.repo.DeleteByID(ctx, id, ownerID)
}

// Chat processes one spoken turn: the clip must be a well-formed WAV
// container; the user turn and the generated tutor turn are appended to the
// stored history and the tutor's answer returned.
func (s *ConversationService) Chat(ctx context.Context, conversationID, ownerID, username string, clip []byte) (*models.ChatResult, error) {
	conv, err := s.repo.GetByID(ctx, conversationID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := audio.Validate(clip); err != nil {
		return nil, err
	}

	if s.archive != nil {
		if key, err := s.archive.Put(ctx, username, clip, audio.MediaType); err != nil {
			s.logger.Warn(ctx, "audio archive failed", "conversation", conv.ID, "error", err)
		} else if key != "" {
			s.logger.Debug(ctx, "audio archived", "key", key)
		}
	}

	reply, pronunciation, feedback := pickReply()
	userMsg := &models.Message{
		ConversationID: conv.ID,
		Kind:           models.MessageUser,
		Text:           userTurnText,
	}
	tutorMsg := &models.Message{
		ConversationID: conv.ID,
		Kind:           models.MessageAssistant,
		Text:           reply,
		Pronunciation:  pronunciation,
		Feedback:       feedback,
	}
	if err := s.repo.AddTurn(ctx, userMsg, tutorMsg); err != nil {
		return nil, err
	}

	return &models.ChatResult{Reply: reply, Pronunciation: pronunciation, Feedback: feedback}, nil
}
