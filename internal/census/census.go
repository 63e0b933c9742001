// Package census loads the population reference used to normalize case
// counts: population per province and, when the file carries a sexo column,
// per (province, sex).
package census

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	pcsv "covideda/internal/parser/csv"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned by Load when the census file does not exist. It
// also matches fs.ErrNotExist.
var ErrNotFound = errors.New("census file not found")

// Required and optional header columns.
const (
	ColProvince   = "provincia"
	ColPopulation = "poblacion"
	ColSex        = "sexo"
)

// Key identifies a (province, sex) population cell. Both fields are
// normalized.
type Key struct {
	Province string
	Sex      string
}

// Table is an in-memory population reference.
type Table struct {
	byProvince map[string]int64
	bySex      map[Key]int64
	names      map[string]string // normalized key -> first display name seen
	hasSex     bool
}

// Load reads the census CSV at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("census: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("census: read %s: %w", path, err)
	}
	return t, nil
}

// Read parses a header-keyed census CSV. Header names are matched after
// folding case and accents, so "Población" is accepted for poblacion. Rows
// sharing a province are summed into the per-province population.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("header: %w", err)
	}
	header = pcsv.StripHeaderBOM(header)

	idx := map[string]int{}
	for i, h := range header {
		idx[fold(h)] = i
	}
	provIx, ok := idx[ColProvince]
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColProvince)
	}
	popIx, ok := idx[ColPopulation]
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColPopulation)
	}
	sexIx, hasSex := idx[ColSex]

	t := &Table{
		byProvince: map[string]int64{},
		bySex:      map[Key]int64{},
		names:      map[string]string{},
		hasSex:     hasSex,
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		name := strings.TrimSpace(rec[provIx])
		raw := strings.TrimSpace(rec[popIx])
		pop, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s %q: %w", line, ColPopulation, raw, err)
		}

		key := NormalizeProvince(name)
		if _, seen := t.names[key]; !seen {
			t.names[key] = name
		}
		t.byProvince[key] += pop
		if hasSex {
			t.bySex[Key{Province: key, Sex: NormalizeSex(rec[sexIx])}] += pop
		}
	}
	return t, nil
}

// Population returns the population of province. ok is false when the
// province is unknown or its population is not positive, so callers never
// divide by zero.
func (t *Table) Population(province string) (pop int64, ok bool) {
	pop, ok = t.byProvince[NormalizeProvince(province)]
	return pop, ok && pop > 0
}

// PopulationBySex returns the population of sex in province, with the same
// semantics as Population.
func (t *Table) PopulationBySex(province, sex string) (pop int64, ok bool) {
	pop, ok = t.bySex[Key{Province: NormalizeProvince(province), Sex: NormalizeSex(sex)}]
	return pop, ok && pop > 0
}

// HasSex reports whether the source file carried a sexo column.
func (t *Table) HasSex() bool { return t.hasSex }

// Name returns the census spelling of province, or the trimmed input when
// the province is unknown.
func (t *Table) Name(province string) string {
	if n, ok := t.names[NormalizeProvince(province)]; ok {
		return n
	}
	return strings.TrimSpace(province)
}

// NormalizeProvince returns the matching key for a province name: trimmed,
// lower-cased, accents removed and inner whitespace collapsed.
// "  Córdoba " and "CORDOBA" share a key.
func NormalizeProvince(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

// NormalizeSex trims and upper-cases a sex code.
func NormalizeSex(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// fold lower-cases s and strips combining marks.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, drop nonspacing marks, recompose.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
