package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"covideda/internal/storage"

	_ "modernc.org/sqlite"
)

// NewRepository opens a SQLite connection using the provided DSN and returns
// a repository plus a Close function for cleanup.
//
// The pool is limited to a single connection: the store is one local file
// used by one process, and ":memory:" databases exist per connection.
func NewRepository(ctx context.Context, cfg Config) (*storage.SQLRepository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	repo := storage.NewSQLRepository(db, Dialect{})
	return repo, repo.Close, nil
}
