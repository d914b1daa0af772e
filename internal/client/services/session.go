// Package services contains application services for the SpeakFluent client.
// This file defines the session manager: online-first login and registration
// with offline fallback, session persistence, and demotion.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/client/remote"
	"github.com/speakfluent/speakfluent/internal/client/repositories/session"
	"github.com/speakfluent/speakfluent/internal/client/repositories/users"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
)

const minPasswordLength = 6

const offlineTokenTTL = 30 * 24 * time.Hour

// SessionManager owns the single active session of the running client.
//
// Contract:
//   - Login: remote first; any remote failure falls back to the local
//     credential store. Failure of both surfaces common.ErrAuthentication
//     wrapping both causes.
//   - Register: local validation before any I/O; then the same
//     online-then-offline order as Login.
//   - Both outcomes persist the current-session record {username, mode, token}.
//   - Logout clears the session; idempotent.
//   - Demote replaces a live online session with an offline one carrying a
//     freshly minted local token, and persists it.
//
// At most one session is active at a time; Current returns nil when logged out.
type SessionManager struct {
	remote remote.Client
	users  users.Repository
	store  session.Repository
	logger logging.Logger

	mu      sync.Mutex
	current *models.Session
}

func NewSessionManager(rc remote.Client, ur users.Repository, sr session.Repository, logger logging.Logger) *SessionManager {
	return &SessionManager{remote: rc, users: ur, store: sr, logger: logger}
}

// Current returns the active session, or nil when logged out.
func (m *SessionManager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Login authenticates remote-first and commits the resulting session.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*models.Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	token, remoteErr := m.remote.Login(ctx, username, password)
	if remoteErr == nil {
		return m.commit(ctx, models.Session{Username: username, Mode: models.ModeOnline, Token: token})
	}
	m.logger.Warn(ctx, "remote login failed, trying offline", "username", username, "error", remoteErr)

	localErr := m.authenticateLocal(ctx, username, password)
	if localErr == nil {
		offlineToken, err := m.mintOfflineToken(ctx, username)
		if err != nil {
			return nil, err
		}
		return m.commit(ctx, models.Session{Username: username, Mode: models.ModeOffline, Token: offlineToken})
	}

	return nil, fmt.Errorf("%w: remote: %w; local: %w", common.ErrAuthentication, remoteErr, localErr)
}

// Register validates input, then creates the account remote-first with
// offline fallback, and commits the resulting session.
func (m *SessionManager) Register(ctx context.Context, username, password, passwordConfirm string) (*models.Session, error) {
	if err := validateRegistration(username, password, passwordConfirm); err != nil {
		return nil, err
	}

	remoteErr := m.registerRemote(ctx, username, password)
	if remoteErr == nil {
		token, err := m.remote.Login(ctx, username, password)
		if err == nil {
			return m.commit(ctx, models.Session{Username: username, Mode: models.ModeOnline, Token: token})
		}
		remoteErr = err
	}
	m.logger.Warn(ctx, "remote registration failed, registering offline", "username", username, "error", remoteErr)

	if err := m.registerLocal(ctx, username, password); err != nil {
		return nil, fmt.Errorf("%w: remote: %w; local: %w", common.ErrAuthentication, remoteErr, err)
	}
	offlineToken, err := m.mintOfflineToken(ctx, username)
	if err != nil {
		return nil, err
	}
	return m.commit(ctx, models.Session{Username: username, Mode: models.ModeOffline, Token: offlineToken})
}

// Logout clears the in-memory session and the persisted record. Calling it
// while logged out is a no-op.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.store.Clear(ctx)
}

// Demote replaces the active session with an offline one and persists it.
// The caller (conversation reconciliation) invokes it when the remote
// backend fails mid-session.
func (m *SessionManager) Demote(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil {
		return nil, fmt.Errorf("%w: no active session", common.ErrInvalidState)
	}
	if !current.Online() {
		return current, nil
	}

	token, err := m.mintOfflineToken(ctx, current.Username)
	if err != nil {
		return nil, err
	}
	return m.commit(ctx, models.Session{Username: current.Username, Mode: models.ModeOffline, Token: token})
}

// Resume restores the persisted session at startup. Returns nil (no error)
// when no session is persisted.
func (m *SessionManager) Resume(ctx context.Context) (*models.Session, error) {
	s, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s, nil
}

func (m *SessionManager) commit(ctx context.Context, s models.Session) (*models.Session, error) {
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	m.logger.Info(ctx, "session established", "username", s.Username, "mode", string(s.Mode))
	return &s, nil
}

func (m *SessionManager) authenticateLocal(ctx context.Context, username, password string) error {
	u, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return common.ErrUnauthorized
	}
	return nil
}

func (m *SessionManager) registerRemote(ctx context.Context, username, password string) error {
	if _, err := m.remote.Register(ctx, username, password); err != nil {
		return err
	}
	return nil
}

func (m *SessionManager) registerLocal(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return m.users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
}

func (m *SessionManager) mintOfflineToken(ctx context.Context, username string) (string, error) {
	secret, err := m.store.TokenSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("loading token secret: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(offlineTokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing offline token: %w", err)
	}
	return token, nil
}

func validateRegistration(username, password, passwordConfirm string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	if password != passwordConfirm {
		return fmt.Errorf("%w: password confirmation does not match", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}
	return nil
}
