// Package storage opens the server database and bundles its repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/speakfluent/speakfluent/internal/server/migrations"
	"github.com/speakfluent/speakfluent/internal/server/repositories/conversations"
	"github.com/speakfluent/speakfluent/internal/server/repositories/users"
)

// Repositories is the set of stores the server services depend on.
type Repositories struct {
	Users         users.Repository
	Conversations conversations.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open connects to postgres via the pgx stdlib driver, applies migrations,
// and returns the DB handle plus repository bundle.
func Open(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	repos := &Repositories{
		Users:         users.NewPostgresRepository(db),
		Conversations: conversations.NewPostgresRepository(db),
	}
	return db, repos, nil
}
