package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/dbx"
)

// SQLiteRepository implements Repository over the local cache database.
// Multi-statement mutations run inside a transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := `INSERT INTO conversations (id, title, scenario, level, owner, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.Title, conv.Scenario, conv.Level, conv.Owner,
		conv.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAllByOwner(ctx context.Context, owner string) ([]models.Conversation, error) {
	query := `SELECT id, title, scenario, level, owner, created_at
	          FROM conversations WHERE owner = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select conversations: %w", err)
	}
	defer rows.Close()

	var result []models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id, owner string) (*models.Conversation, error) {
	query := `SELECT id, title, scenario, level, owner, created_at
	          FROM conversations WHERE id = ? AND owner = ?`

	row := r.db.QueryRowContext(ctx, query, id, owner)

	var (
		conv      models.Conversation
		createdAt string
	)
	err := row.Scan(&conv.ID, &conv.Title, &conv.Scenario, &conv.Level, &conv.Owner, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select conversation: %w", err)
	}
	conv.CreatedAt = parseTime(createdAt)
	return &conv, nil
}

// DeleteByID removes a conversation and its messages in one transaction, so a
// failure between the two deletes never destroys history of a still-listed
// conversation.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id, owner string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE conversation_id IN
			   (SELECT id FROM conversations WHERE id = ? AND owner = ?)`, id, owner); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND owner = ?`, id, owner)
		if err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

func (r *SQLiteRepository) AddMessage(ctx context.Context, conversationID string, m *models.Message) error {
	query := `INSERT INTO messages (id, conversation_id, seq, kind, body, pronunciation, feedback, created_at)
	          VALUES (?, ?,
	                  (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?),
	                  ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, conversationID, conversationID,
		string(m.Kind), m.Text, m.Pronunciation, m.Feedback,
		m.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateMessage(ctx context.Context, m *models.Message) error {
	query := `UPDATE messages SET body = ?, pronunciation = ?, feedback = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, m.Text, m.Pronunciation, m.Feedback, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MessagesByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `SELECT id, kind, body, pronunciation, feedback, created_at
	          FROM messages WHERE conversation_id = ? ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.Message
	for rows.Next() {
		var (
			m         models.Message
			kind      string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &kind, &m.Text, &m.Pronunciation, &m.Feedback, &createdAt); err != nil {
			return nil, err
		}
		m.Kind = models.MessageKind(kind)
		m.Timestamp = parseTime(createdAt)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanConversation(rows *sql.Rows) (*models.Conversation, error) {
	var (
		conv      models.Conversation
		createdAt string
	)
	if err := rows.Scan(&conv.ID, &conv.Title, &conv.Scenario, &conv.Level, &conv.Owner, &createdAt); err != nil {
		return nil, err
	}
	conv.CreatedAt = parseTime(createdAt)
	return &conv, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
