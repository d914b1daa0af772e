// Package storage opens the client's local cache database and bundles the
// repositories built on top of it. The cache holds offline credentials, the
// persisted current-session record, and locally-owned conversations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/speakfluent/speakfluent/internal/client/migrations"
	"github.com/speakfluent/speakfluent/internal/client/repositories/conversations"
	"github.com/speakfluent/speakfluent/internal/client/repositories/session"
	"github.com/speakfluent/speakfluent/internal/client/repositories/users"
	_ "modernc.org/sqlite"
)

// Repositories is the set of local stores the client services depend on.
type Repositories struct {
	Users         users.Repository
	Conversations conversations.Repository
	Session       session.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite database at dsn, applies
// migrations, and returns the DB handle plus repository bundle.
func Open(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening local database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrating local database: %w", err)
	}

	repos := &Repositories{
		Users:         users.NewSQLiteRepository(db),
		Conversations: conversations.NewSQLiteRepository(db),
		Session:       session.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
