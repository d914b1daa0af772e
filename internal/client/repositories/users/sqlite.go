package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: username %q", common.ErrAlreadyExists, user.Username)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`

	var (
		u         models.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}
