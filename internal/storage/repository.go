// Package storage contains storage-agnostic contracts and utilities.
//
// Backends (sqlite, postgres, mssql, mysql) register a Factory for their
// storage kind at init time. Callers open a Repository through New and stay
// backend-agnostic from then on: queries are written with '?' placeholders
// and rebound to the backend's syntax by the Dialect.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config is the backend-neutral connection configuration.
type Config struct {
	// Kind selects the backend, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is passed to the backend driver unchanged.
	DSN string
}

// Repository is the minimal surface the loader and the report engine need
// from a backend.
type Repository interface {
	// Dialect describes the SQL flavour spoken by the backend.
	Dialect() Dialect

	// Exec runs a statement (typically DDL). Placeholders are rebound.
	Exec(ctx context.Context, query string, args ...any) error

	// Query runs a row-returning statement. Placeholders are rebound.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow runs a single-row statement. Placeholders are rebound.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Begin opens a write transaction used for bulk loading.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the underlying connection pool.
	Close()
}

// Tx is a bulk-load transaction. Nothing written through CopyFrom is visible
// until Commit succeeds.
type Tx interface {
	// CopyFrom inserts rows (aligned to columns) into table and returns the
	// number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Commit() error
	Rollback() error
}

// Factory opens a Repository for a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(strings.TrimSpace(kind))] = f
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
