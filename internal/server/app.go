// Package server initializes and runs the SpeakFluent backend: database,
// services, HTTP surface, and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/speakfluent/speakfluent/internal/logging"
	"github.com/speakfluent/speakfluent/internal/server/audiostore"
	"github.com/speakfluent/speakfluent/internal/server/config"
	"github.com/speakfluent/speakfluent/internal/server/httpapi"
	"github.com/speakfluent/speakfluent/internal/server/services"
	"github.com/speakfluent/speakfluent/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, repos, err := storage.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	archive, err := audiostore.NewS3Store(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audio archive init error: %w", err)
	}
	if archive != nil {
		logger.Info(ctx, "audio archive enabled", "bucket", c.S3Bucket)
	}

	us := services.NewUserService(repos.Users, c)
	cs := services.NewConversationService(repos.Conversations, archive, logger)
	api := httpapi.NewServer(us, cs, []byte(c.SecretKey), logger)

	return &App{config: c, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
}
