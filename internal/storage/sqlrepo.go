package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLRepository implements Repository on top of database/sql. Every backend
// shares it and only contributes a driver connection plus a Dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure SQLRepository satisfies the interface at compile time.
var _ Repository = (*SQLRepository)(nil)

// NewSQLRepository wraps an open *sql.DB.
func NewSQLRepository(db *sql.DB, d Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: d}
}

// Dialect implements Repository.
func (r *SQLRepository) Dialect() Dialect { return r.dialect }

// Exec implements Repository.
func (r *SQLRepository) Exec(ctx context.Context, query string, args ...any) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, Rebind(r.dialect, query), args...); err != nil {
		return fmt.Errorf("%s: exec: %w", r.dialect.Name(), err)
	}
	return nil
}

// Query implements Repository.
func (r *SQLRepository) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := r.db.QueryContext(ctx, Rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", r.dialect.Name(), err)
	}
	return rows, nil
}

// QueryRow implements Repository.
func (r *SQLRepository) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, Rebind(r.dialect, query), args...)
}

// Begin implements Repository.
func (r *SQLRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", r.dialect.Name(), err)
	}
	return &sqlTx{tx: tx, dialect: r.dialect}, nil
}

// Close implements Repository.
func (r *SQLRepository) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// sqlTx batches prepared INSERTs inside one transaction. The statement is
// prepared on first use and reused for every following batch.
type sqlTx struct {
	tx      *sql.Tx
	dialect Dialect
	stmt    *sql.Stmt
	stmtKey string
}

// CopyFrom implements Tx.
func (t *sqlTx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	name := t.dialect.Name()
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", name)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	key := table + "\x00" + strings.Join(columns, "\x00")
	if t.stmt == nil || t.stmtKey != key {
		if t.stmt != nil {
			_ = t.stmt.Close()
		}
		stmt, err := t.tx.PrepareContext(ctx, buildInsertSQL(t.dialect, table, columns))
		if err != nil {
			return 0, fmt.Errorf("%s: prepare insert: %w", name, err)
		}
		t.stmt, t.stmtKey = stmt, key
	}

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("%s: CopyFrom: row length %d != columns length %d", name, len(row), len(columns))
		}
		if _, err := t.stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", name, err)
		}
		inserted++
	}
	return inserted, nil
}

// Commit implements Tx.
func (t *sqlTx) Commit() error {
	t.closeStmt()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.dialect.Name(), err)
	}
	return nil
}

// Rollback implements Tx.
func (t *sqlTx) Rollback() error {
	t.closeStmt()
	return t.tx.Rollback()
}

func (t *sqlTx) closeStmt() {
	if t.stmt != nil {
		_ = t.stmt.Close()
		t.stmt = nil
	}
}

// buildInsertSQL builds INSERT INTO <table> (<cols>) VALUES (<placeholders>).
func buildInsertSQL(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
	)
}
