package postgres

import (
	"strconv"

	"covideda/internal/storage"
)

// Dialect is the PostgreSQL flavour of storage.Dialect.
type Dialect struct{ storage.ANSI }

// Name implements storage.Dialect.
func (Dialect) Name() string { return "postgres" }

// Placeholder implements storage.Dialect ($1, $2, ...).
func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
