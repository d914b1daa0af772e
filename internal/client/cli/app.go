package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/speakfluent/speakfluent/internal/client/config"
	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/client/remote"
	"github.com/speakfluent/speakfluent/internal/client/services"
	"github.com/speakfluent/speakfluent/internal/client/storage"
	"github.com/speakfluent/speakfluent/internal/logging"
)

// App wires the client services behind the REPL commands. The active
// conversation is the one opened with `open`; `say` records into it.
type App struct {
	config   *config.Config
	db       *sql.DB
	sessions *services.SessionManager
	store    *services.ConversationStore
	capture  *services.CaptureController
	logger   logging.Logger

	reader  *bufio.Reader
	current *models.Conversation
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	db, repos, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	apiClient := remote.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)

	sessions := services.NewSessionManager(apiClient, repos.Users, repos.Session, logger)
	store := services.NewConversationStore(apiClient, repos.Conversations, sessions, logger)
	capture := services.NewCaptureController(NewToneDevice(), apiClient, store, sessions, logger)

	return &App{
		config:   c,
		db:       db,
		sessions: sessions,
		store:    store,
		capture:  capture,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores any persisted session and enters the REPL.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.db.Close() }()

	if s, err := a.sessions.Resume(ctx); err == nil && s != nil {
		printlnFn("Resumed session for", s.Username, "("+string(s.Mode)+")")
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Current() != nil
}

func (a *App) status() string {
	s := a.sessions.Current()
	if s == nil {
		return "logged out"
	}
	status := s.Username + " (" + string(s.Mode) + ")"
	if a.current != nil {
		status += " [" + a.current.Title + "]"
	}
	return status
}
