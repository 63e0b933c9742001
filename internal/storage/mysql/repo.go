// Package mysql implements a MySQL-backed storage.Repository using
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"covideda/internal/storage"

	driver "github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the go-sql-driver format, e.g.
	// "user:pass@tcp(localhost:3306)/covid?charset=utf8mb4".
	DSN string
}

// NewRepository parses the DSN, opens a pool and returns a repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*storage.SQLRepository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	mc, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	connector, err := driver.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	repo := storage.NewSQLRepository(db, Dialect{})
	return repo, repo.Close, nil
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, _, err := NewRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
