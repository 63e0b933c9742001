package storage

import (
	"strings"
)

// ColumnKind is the logical type of a destination column.
type ColumnKind int

const (
	// KindText holds free text.
	KindText ColumnKind = iota
	// KindInteger holds whole numbers where the backend tolerates verbatim
	// text (SQLite affinity); other backends map it to text as well.
	KindInteger
)

// Dialect abstracts the SQL differences between backends that the loader and
// reports care about.
type Dialect interface {
	// Name is the storage kind, e.g. "sqlite".
	Name() string

	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string

	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string

	// CastInt casts expr to an integer type. Empty or blank text casts to
	// NULL.
	CastInt(expr string) string

	// CastFloat casts expr to a floating point type. Empty or blank text
	// casts to NULL.
	CastFloat(expr string) string

	// MapType returns the column type used for kind.
	MapType(kind ColumnKind) string
}

// Rebind rewrites '?' placeholders in query into d's placeholder syntax.
// Question marks inside single-quoted literals or quoted identifiers are left
// untouched.
func Rebind(d Dialect, query string) string {
	if d == nil || d.Placeholder(1) == "?" || !strings.Contains(query, "?") {
		return query
	}

	var (
		sb    strings.Builder
		n     int
		quote rune
	)
	sb.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			sb.WriteRune(r)
		case r == '\'' || r == '"' || r == '`':
			quote = r
			sb.WriteRune(r)
		case r == '?':
			n++
			sb.WriteString(d.Placeholder(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// doubleQuote is the ANSI identifier quoting shared by sqlite and postgres.
func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ANSI implements the parts of Dialect common to ANSI-quoting backends.
// Backends embed it and override what differs.
type ANSI struct{}

// Placeholder implements Dialect.
func (ANSI) Placeholder(int) string { return "?" }

// QuoteIdent implements Dialect.
func (ANSI) QuoteIdent(name string) string { return doubleQuote(name) }

// CastInt implements Dialect.
func (ANSI) CastInt(expr string) string { return CastAs(expr, "INTEGER") }

// CastFloat implements Dialect.
func (ANSI) CastFloat(expr string) string { return CastAs(expr, "DOUBLE PRECISION") }

// CastAs casts expr to typ, mapping blank text to NULL first so that
// backends with strict casts do not fail on empty cells.
func CastAs(expr, typ string) string {
	return "CAST(NULLIF(TRIM(" + expr + "), '') AS " + typ + ")"
}

// MapType implements Dialect. Every column is text so that rows can be
// inserted verbatim.
func (ANSI) MapType(ColumnKind) string { return "TEXT" }
