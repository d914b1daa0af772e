package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/client/remote"
	"github.com/speakfluent/speakfluent/internal/client/repositories/conversations"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
)

// ConversationStore unifies the remote conversation backend and the local
// cache behind one contract. Every operation consults the active session's
// mode: online routes to the remote backend, offline to the local one.
// The in-memory conversation list is owned here; all mutation goes through
// these methods.
type ConversationStore struct {
	remote   remote.Client
	repo     conversations.Repository
	sessions *SessionManager
	logger   logging.Logger

	cached []models.Conversation
}

func NewConversationStore(rc remote.Client, repo conversations.Repository, sm *SessionManager, logger logging.Logger) *ConversationStore {
	return &ConversationStore{remote: rc, repo: repo, sessions: sm, logger: logger}
}

func (s *ConversationStore) session() (*models.Session, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return nil, fmt.Errorf("%w: not logged in", common.ErrInvalidState)
	}
	return sess, nil
}

// Cached returns the last listed conversations without any backend call.
func (s *ConversationStore) Cached() []models.Conversation {
	return s.cached
}

// List returns the active user's conversations, newest first. When an online
// list fails, the session is demoted to offline (persisted) and the list is
// retried against the local cache exactly once.
func (s *ConversationStore) List(ctx context.Context) ([]models.Conversation, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}

	if sess.Online() {
		list, err := s.remote.ListConversations(ctx, sess.Token)
		if err == nil {
			s.cached = list
			return list, nil
		}
		s.logger.Warn(ctx, "remote list failed, demoting to offline", "error", err)
		if sess, err = s.sessions.Demote(ctx); err != nil {
			return nil, err
		}
	}

	list, err := s.repo.GetAllByOwner(ctx, sess.Username)
	if err != nil {
		return nil, err
	}
	s.cached = list
	return list, nil
}

// Create creates a conversation and seeds the scenario's assistant welcome
// message. Online, the conversation row comes from the remote backend; the
// welcome message is client-side either way.
func (s *ConversationStore) Create(ctx context.Context, title, scenarioID, level string) (*models.Conversation, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}

	if scenarioID == "" {
		scenarioID = models.DefaultScenario
	}
	scenario := models.ScenarioByID(scenarioID)
	if title == "" {
		title = scenario.Name
	}
	if level == "" {
		level = scenario.Level
	}

	var conv *models.Conversation
	if sess.Online() {
		conv, err = s.remote.CreateConversation(ctx, sess.Token, title, scenarioID, level)
		if err != nil {
			return nil, err
		}
	} else {
		conv = &models.Conversation{
			ID:        uuid.NewString(),
			Title:     title,
			Scenario:  scenarioID,
			Level:     level,
			Owner:     sess.Username,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, conv); err != nil {
			return nil, err
		}
	}

	welcome := models.Message{
		ID:        uuid.NewString(),
		Kind:      models.MessageAssistant,
		Text:      scenario.Welcome,
		Timestamp: time.Now().UTC(),
	}
	if err := s.AppendMessage(ctx, conv.ID, &welcome); err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, welcome)

	s.cached = append([]models.Conversation{*conv}, s.cached...)
	return conv, nil
}

// Delete removes a conversation. Online, the remote delete is followed by an
// authoritative re-list from the remote backend; the in-memory list is never
// edited optimistically, so a failed remote delete leaves it unchanged.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}

	if sess.Online() {
		if err := s.remote.DeleteConversation(ctx, sess.Token, id); err != nil {
			return err
		}
		list, err := s.remote.ListConversations(ctx, sess.Token)
		if err != nil {
			return err
		}
		s.cached = list
		return nil
	}

	if err := s.repo.DeleteByID(ctx, id, sess.Username); err != nil {
		return err
	}
	filtered := s.cached[:0]
	for _, c := range s.cached {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	s.cached = filtered
	return nil
}

// AppendMessage records a message in the conversation's sequence. The message
// is persisted to the local cache only when the session is offline; online,
// the remote backend is authoritative for history.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID string, m *models.Message) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	if sess.Online() {
		return nil
	}
	return s.repo.AddMessage(ctx, conversationID, m)
}

// UpdateMessage replaces a previously appended message's content in place.
// Like AppendMessage, persistence is offline-only.
func (s *ConversationStore) UpdateMessage(ctx context.Context, m *models.Message) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	if sess.Online() {
		return nil
	}
	return s.repo.UpdateMessage(ctx, m)
}

// History returns the ordered message sequence of one conversation.
func (s *ConversationStore) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}

	if sess.Online() {
		return s.remote.History(ctx, sess.Token, conversationID)
	}

	if _, err := s.repo.GetByID(ctx, conversationID, sess.Username); err != nil {
		return nil, err
	}
	return s.repo.MessagesByConversation(ctx, conversationID)
}
