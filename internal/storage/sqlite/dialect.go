package sqlite

import "covideda/internal/storage"

// Dialect is the SQLite flavour of storage.Dialect.
type Dialect struct{ storage.ANSI }

// Name implements storage.Dialect.
func (Dialect) Name() string { return "sqlite" }

// CastFloat implements storage.Dialect.
func (Dialect) CastFloat(expr string) string { return storage.CastAs(expr, "REAL") }

// MapType implements storage.Dialect. SQLite keeps non-numeric text in an
// INTEGER-affinity column, so ages can be declared as integers while empty
// strings still load verbatim.
func (Dialect) MapType(kind storage.ColumnKind) string {
	if kind == storage.KindInteger {
		return "INTEGER"
	}
	return "TEXT"
}
