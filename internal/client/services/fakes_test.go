package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/client/repositories/conversations"
	"github.com/speakfluent/speakfluent/internal/client/repositories/session"
	"github.com/speakfluent/speakfluent/internal/client/repositories/users"
	"github.com/speakfluent/speakfluent/internal/logging"
)

// fakeRemote is a scriptable remote.Client that records which calls were made.
type fakeRemote struct {
	calls []string

	loginToken string
	loginErr   error

	registerErr error

	conversations []models.Conversation
	listErr       error

	createErr error
	deleteErr error

	history    []models.Message
	historyErr error

	reply   *models.ChatReply
	sendErr error

	lastScenario string
	lastAudio    []byte
}

func (f *fakeRemote) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.record("ping")
	return nil
}

func (f *fakeRemote) Login(ctx context.Context, username, password string) (string, error) {
	f.record("login")
	return f.loginToken, f.loginErr
}

func (f *fakeRemote) Register(ctx context.Context, username, password string) (*models.User, error) {
	f.record("register")
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "remote-user", Username: username, CreatedAt: time.Now()}, nil
}

func (f *fakeRemote) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	f.record("list")
	return f.conversations, f.listErr
}

func (f *fakeRemote) CreateConversation(ctx context.Context, token, title, scenario, level string) (*models.Conversation, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Conversation{
		ID: "remote-conv", Title: title, Scenario: scenario, Level: level, CreatedAt: time.Now(),
	}, nil
}

func (f *fakeRemote) DeleteConversation(ctx context.Context, token, id string) error {
	f.record("delete")
	return f.deleteErr
}

func (f *fakeRemote) History(ctx context.Context, token, id string) ([]models.Message, error) {
	f.record("history")
	return f.history, f.historyErr
}

func (f *fakeRemote) SendAudio(ctx context.Context, token, conversationID string, payload *audio.Payload, scenario string) (*models.ChatReply, error) {
	f.record("send")
	f.lastScenario = scenario
	f.lastAudio = payload.Data
	return f.reply, f.sendErr
}

type repos struct {
	users         users.Repository
	conversations conversations.Repository
	session       session.Repository
}

func setupRepos(t *testing.T) *repos {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE users (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at    TEXT NOT NULL
);
CREATE TABLE conversations (
  id         TEXT PRIMARY KEY,
  title      TEXT NOT NULL,
  scenario   TEXT NOT NULL,
  level      TEXT NOT NULL,
  owner      TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE TABLE messages (
  id              TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL,
  seq             INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  body            TEXT NOT NULL,
  pronunciation   TEXT NOT NULL DEFAULT '',
  feedback        TEXT NOT NULL DEFAULT '',
  created_at      TEXT NOT NULL
);
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`)
	require.NoError(t, err)

	return &repos{
		users:         users.NewSQLiteRepository(db),
		conversations: conversations.NewSQLiteRepository(db),
		session:       session.NewSQLiteRepository(db),
	}
}

func testLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelError)
}
