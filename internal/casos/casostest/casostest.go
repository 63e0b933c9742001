// Package casostest builds small case tables for tests.
package casostest

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"covideda/internal/casos"
	"covideda/internal/storage"
	"covideda/internal/storage/sqlite"
)

// Case holds the fields reports look at. The remaining columns are filled
// with fixed values.
type Case struct {
	Sexo          string
	Edad          string
	Provincia     string
	Fallecido     string
	Clasificacion string
}

// Confirmed is the classification string used by the national dataset.
const Confirmed = "Caso confirmado por laboratorio - No activo (por alta y tiempo de evolución)"

// Discarded is a non-confirmed classification.
const Discarded = "Caso Descartado"

// Record expands c into a full 12-field CSV record.
func (c Case) Record() []string {
	return []string{
		c.Sexo,
		c.Edad,
		"Años",
		"Argentina",
		c.Provincia,
		"Capital",
		c.Provincia,
		c.Fallecido,
		"NO",
		"Público",
		c.Clasificacion,
		"2021-03-01",
	}
}

// CSV renders cases as a CSV document with a header row.
func CSV(tb testing.TB, cases ...Case) []byte {
	tb.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(casos.ColumnNames()); err != nil {
		tb.Fatalf("write header: %v", err)
	}
	for _, c := range cases {
		if err := w.Write(c.Record()); err != nil {
			tb.Fatalf("write record: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tb.Fatalf("flush csv: %v", err)
	}
	return buf.Bytes()
}

// NewStore opens an in-memory SQLite store closed at test cleanup.
func NewStore(tb testing.TB) storage.Repository {
	tb.Helper()
	repo, closeFn, err := sqlite.NewRepository(context.Background(), sqlite.Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(closeFn)
	return repo
}

// Load opens a fresh store holding cases.
func Load(tb testing.TB, cases ...Case) storage.Repository {
	tb.Helper()
	repo := NewStore(tb)
	if _, err := casos.LoadReader(context.Background(), repo, bytes.NewReader(CSV(tb, cases...)), casos.LoadOptions{}); err != nil {
		tb.Fatalf("load cases: %v", err)
	}
	return repo
}
