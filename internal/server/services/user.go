// Package services contains application services for the SpeakFluent server.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/server/auth"
	"github.com/speakfluent/speakfluent/internal/server/config"
	"github.com/speakfluent/speakfluent/internal/server/models"
	"github.com/speakfluent/speakfluent/internal/server/repositories/users"
)

const minPasswordLength = 6

// UserService handles registration and token-based login.
type UserService struct {
	repo   users.Repository
	config *config.Config
}

func NewUserService(repo users.Repository, c *config.Config) *UserService {
	return &UserService{repo: repo, config: c}
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return s.repo.Create(ctx, &models.User{Username: username, PasswordHash: string(hash)})
}

// Login verifies credentials and returns a signed access token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrUnauthorized
	}

	return auth.GenerateToken(u.Username, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
}

// Resolve maps a verified username back to its account record.
func (s *UserService) Resolve(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}
