package session

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/dbx"
)

const (
	keyUsername    = "session.username"
	keyMode        = "session.mode"
	keyToken       = "session.token"
	keyTokenSecret = "token.secret"
)

const tokenSecretLen = 32

// SQLiteRepository implements Repository over the metadata key/value table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) set(ctx context.Context, q dbx.DBTX, key, value string) error {
	query := `INSERT INTO metadata (key, value) VALUES (?, ?)
	          ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("failed to get metadata %q: %w", key, err)
	}
	return value, nil
}

// Save writes the three session keys in one transaction: the stored record is
// either the previous session or the new one, never a mix.
func (r *SQLiteRepository) Save(ctx context.Context, s models.Session) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := r.set(ctx, tx, keyUsername, s.Username); err != nil {
			return err
		}
		if err := r.set(ctx, tx, keyMode, string(s.Mode)); err != nil {
			return err
		}
		return r.set(ctx, tx, keyToken, s.Token)
	})
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.Session, error) {
	username, err := r.get(ctx, keyUsername)
	if err != nil {
		return nil, err
	}
	mode, err := r.get(ctx, keyMode)
	if err != nil {
		return nil, err
	}
	token, err := r.get(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	return &models.Session{Username: username, Mode: models.Mode(mode), Token: token}, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	query := `DELETE FROM metadata WHERE key IN (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, keyUsername, keyMode, keyToken); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) TokenSecret(ctx context.Context) ([]byte, error) {
	value, err := r.get(ctx, keyTokenSecret)
	if errors.Is(err, common.ErrNotFound) {
		value = common.MakeRandHexString(tokenSecretLen)
		if err := r.set(ctx, r.db, keyTokenSecret, value); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	secret, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token secret: %w", err)
	}
	return secret, nil
}
