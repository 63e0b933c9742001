package mysql

import (
	"strings"

	"covideda/internal/storage"
)

// Dialect is the MySQL flavour of storage.Dialect.
type Dialect struct{}

// Name implements storage.Dialect.
func (Dialect) Name() string { return "mysql" }

// Placeholder implements storage.Dialect.
func (Dialect) Placeholder(int) string { return "?" }

// QuoteIdent implements storage.Dialect using backticks.
func (Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// CastInt implements storage.Dialect.
func (Dialect) CastInt(expr string) string { return storage.CastAs(expr, "SIGNED") }

// CastFloat implements storage.Dialect.
func (Dialect) CastFloat(expr string) string { return storage.CastAs(expr, "DOUBLE") }

// MapType implements storage.Dialect.
func (Dialect) MapType(storage.ColumnKind) string { return "TEXT" }
