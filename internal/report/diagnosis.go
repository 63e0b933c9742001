package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/zeebo/xxh3"
)

// DiagnosisResult is the output of the sex/confirmation diagnosis (89).
type DiagnosisResult struct {
	// BySex counts rows per raw sexo value.
	BySex []Count
	// ConfirmedByClass counts confirmed rows per classification value.
	ConfirmedByClass []Count
	// ConfirmedBySex counts confirmed rows per raw sexo value.
	ConfirmedBySex []Count
	// Duplicates counts rows identical in every column to an earlier row.
	Duplicates int64
}

// Diagnose surfaces raw sexo values and confirmed counts, which explain
// empty results in the per-sex reports.
func Diagnose(ctx context.Context, repo storage.Repository, table string) (DiagnosisResult, error) {
	s := newSQL(repo, table)
	sexo, class := s.col(casos.ColSexo), s.col(casos.ColClasificacion)
	var (
		res DiagnosisResult
		err error
	)

	q := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s ORDER BY %s", sexo, s.table, sexo, sexo)
	if res.BySex, err = countBy(ctx, repo, q); err != nil {
		return res, fmt.Errorf("rows by sex: %w", err)
	}

	q = fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s GROUP BY %s ORDER BY %s", class, s.table, s.confirmed(), class, class)
	if res.ConfirmedByClass, err = countBy(ctx, repo, q, ConfirmedPattern); err != nil {
		return res, fmt.Errorf("confirmed by classification: %w", err)
	}

	q = fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s GROUP BY %s ORDER BY %s", sexo, s.table, s.confirmed(), sexo, sexo)
	if res.ConfirmedBySex, err = countBy(ctx, repo, q, ConfirmedPattern); err != nil {
		return res, fmt.Errorf("confirmed by sex: %w", err)
	}

	if res.Duplicates, err = countDuplicates(ctx, repo, s); err != nil {
		return res, fmt.Errorf("duplicates: %w", err)
	}
	return res, nil
}

// countDuplicates fingerprints every row with xxh3 and counts repeats.
func countDuplicates(ctx context.Context, repo storage.Repository, s sqlText) (int64, error) {
	cols := make([]string, len(casos.Columns))
	for i, c := range casos.Columns {
		cols[i] = s.col(c.Name)
	}
	rows, err := repo.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), s.table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var (
		vals = make([]sql.NullString, len(cols))
		ptrs = make([]any, len(cols))
		seen = map[xxh3.Uint128]struct{}{}
		dups int64
		h    = xxh3.New()
	)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		h.Reset()
		for _, v := range vals {
			if v.Valid {
				_, _ = h.WriteString(strconv.Itoa(len(v.String)))
				_, _ = h.WriteString(":")
				_, _ = h.WriteString(v.String)
			} else {
				_, _ = h.WriteString("-")
			}
		}
		sum := h.Sum128()
		if _, ok := seen[sum]; ok {
			dups++
			continue
		}
		seen[sum] = struct{}{}
	}
	return dups, rows.Err()
}

func quoteLabel(c Count) string {
	if c.Null {
		return "NULL"
	}
	return strconv.Quote(c.Label)
}

// Render implements Result.
func (r DiagnosisResult) Render(w io.Writer) error {
	p := &printer{w: w}
	section := func(heading, unit string, cs []Count) {
		p.printf("%s:\n", heading)
		if len(cs) == 0 {
			p.printf("  (none)\n")
		}
		for _, c := range cs {
			p.printf("- %s: %d %s\n", quoteLabel(c), c.N, unit)
		}
		p.printf("\n")
	}
	section("Distinct values in 'sexo'", "rows", r.BySex)
	section("Classifications containing 'confirmado'", "rows", r.ConfirmedByClass)
	section("Confirmed cases by sex", "confirmed cases", r.ConfirmedBySex)
	p.printf("Exact duplicate rows: %d\n", r.Duplicates)
	return p.err
}

// ClassificationResult is the output of the classification listing (99).
type ClassificationResult struct {
	Values []string
}

// ClassificationValues lists the distinct non-empty classification values.
func ClassificationValues(ctx context.Context, repo storage.Repository, table string) (ClassificationResult, error) {
	s := newSQL(repo, table)
	class := s.col(casos.ColClasificacion)
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s ORDER BY %s", class, s.table, s.nonEmpty(casos.ColClasificacion), class)

	rows, err := repo.Query(ctx, q)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classification values: %w", err)
	}
	defer rows.Close()

	var res ClassificationResult
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return res, err
		}
		res.Values = append(res.Values, v)
	}
	return res, rows.Err()
}

// Render implements Result.
func (r ClassificationResult) Render(w io.Writer) error {
	p := &printer{w: w}
	p.printf("Distinct values in 'clasificacion':\n")
	for _, v := range r.Values {
		p.printf("- %s\n", strconv.Quote(v))
	}
	return p.err
}
