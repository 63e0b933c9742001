package mssql

import (
	"strconv"
	"strings"

	"covideda/internal/storage"
)

// Dialect is the SQL Server flavour of storage.Dialect.
type Dialect struct{}

// Name implements storage.Dialect.
func (Dialect) Name() string { return "mssql" }

// Placeholder implements storage.Dialect (@p1, @p2, ...).
func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// QuoteIdent implements storage.Dialect using bracket quoting.
func (Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// CastInt implements storage.Dialect.
func (Dialect) CastInt(expr string) string { return storage.CastAs(expr, "INT") }

// CastFloat implements storage.Dialect.
func (Dialect) CastFloat(expr string) string { return storage.CastAs(expr, "FLOAT") }

// MapType implements storage.Dialect. TEXT is deprecated on SQL Server and
// cannot be compared with '=', so bounded NVARCHAR is used for every column.
func (Dialect) MapType(storage.ColumnKind) string { return "NVARCHAR(400)" }
