package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/dbx"
	"github.com/speakfluent/speakfluent/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	query := `INSERT INTO conversations (title, scenario, level, owner_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, conv.Title, conv.Scenario, conv.Level, conv.OwnerID).
		Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return conv, nil
}

func (r *PostgresRepository) GetAllByOwner(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	query := `SELECT id, title, scenario, level, owner_id, created_at
	          FROM conversations
	          WHERE owner_id = $1
	          ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Scenario, &c.Level, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Conversation, error) {
	query := `SELECT id, title, scenario, level, owner_id, created_at
	          FROM conversations
	          WHERE id = $1 AND owner_id = $2`

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&c.ID, &c.Title, &c.Scenario, &c.Level, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AddTurn(ctx context.Context, userMsg, tutorMsg *models.Message) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := insertMessage(ctx, tx, userMsg); err != nil {
			return err
		}
		return insertMessage(ctx, tx, tutorMsg)
	})
}

func insertMessage(ctx context.Context, q dbx.DBTX, m *models.Message) error {
	query := `INSERT INTO messages (conversation_id, seq, kind, body, pronunciation, feedback)
	          VALUES ($1,
	                  (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = $1),
	                  $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query,
		m.ConversationID, string(m.Kind), m.Text, m.Pronunciation, m.Feedback).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MessagesByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `SELECT id, conversation_id, kind, body, pronunciation, feedback, created_at
	          FROM messages
	          WHERE conversation_id = $1
	          ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Message
	for rows.Next() {
		var (
			m    models.Message
			kind string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &kind, &m.Text, &m.Pronunciation, &m.Feedback, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = models.MessageKind(kind)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
