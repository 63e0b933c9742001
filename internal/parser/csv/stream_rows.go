// Package csv streams delimited case files into positional rows ready for a
// bulk insert. Rows whose width differs from the expected field count are
// dropped and counted instead of failing the whole load.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
)

// Options configures StreamRows. Zero values select the defaults noted on
// each field.
type Options struct {
	// HasHeader skips the first record.
	HasHeader bool

	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// ExpectedFields, when > 0, drops records with a different field count.
	ExpectedFields int

	// LogEvery emits a progress line every N emitted rows. Zero disables it.
	LogEvery int
}

// Stats counts what StreamRows saw.
type Stats struct {
	// Records is the number of data records read (header excluded), including
	// skipped ones.
	Records int
	Emitted int
	Skipped int
}

// SkipFunc receives every dropped record with its 1-based line number.
type SkipFunc func(line int, err error)

// ErrFieldCount reports a record with the wrong number of fields.
var ErrFieldCount = errors.New("wrong number of fields")

// StreamRows reads src and sends one []any per accepted record to out. Cell
// values are passed through verbatim as strings, so empty cells stay "".
//
// Parse errors on a single record are soft failures: the record is counted
// as skipped and onSkip (when non-nil) is called. I/O errors and context
// cancellation abort the stream. StreamRows does not close out.
func StreamRows(
	ctx context.Context,
	src io.Reader,
	opt Options,
	out chan<- []any,
	onSkip SkipFunc,
) (Stats, error) {
	var stats Stats

	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // width is enforced below

	skip := func(line int, err error) {
		stats.Skipped++
		if onSkip != nil {
			onSkip(line, err)
		}
	}

	first := true
	if opt.HasHeader {
		if _, err := cr.Read(); err != nil {
			if err == io.EOF {
				return stats, nil
			}
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return stats, fmt.Errorf("csv: read header: %w", err)
			}
		}
		first = false
	}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.Records++
				skip(pe.StartLine, err)
				continue
			}
			return stats, fmt.Errorf("csv: read after record %d: %w", stats.Records, err)
		}
		stats.Records++
		line, _ := cr.FieldPos(0)

		if first {
			rec = StripHeaderBOM(rec)
			first = false
		}

		if opt.ExpectedFields > 0 && len(rec) != opt.ExpectedFields {
			skip(line, fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, opt.ExpectedFields, len(rec)))
			continue
		}

		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}

		select {
		case out <- row:
			stats.Emitted++
			if opt.LogEvery > 0 && stats.Emitted%opt.LogEvery == 0 {
				log.Printf("reader: line=%d emitted=%d skipped=%d", line, stats.Emitted, stats.Skipped)
			}
		case <-ctx.Done():
			return stats, ctx.Err()
		}
	}
}
