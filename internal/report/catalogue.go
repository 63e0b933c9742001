package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/olekukonko/tablewriter"
)

// exampleLimit is the number of example values listed per variable.
const exampleLimit = 5

// VariableInfo describes one column of the case table.
type VariableInfo struct {
	casos.Column

	// Distinct counts non-empty distinct values.
	Distinct int64

	// Examples holds up to five non-empty distinct values, sorted. Unused
	// for the age column.
	Examples []string

	// MinAge and MaxAge are set for the age column when any age is present.
	MinAge, MaxAge sql.NullInt64
}

// CatalogueResult is the output of report 1.
type CatalogueResult struct {
	Variables []VariableInfo
}

// VariableCatalogue describes every column: type labels, the age range and
// example values.
func VariableCatalogue(ctx context.Context, repo storage.Repository, table string) (CatalogueResult, error) {
	s := newSQL(repo, table)
	var res CatalogueResult

	for _, c := range casos.Columns {
		v := VariableInfo{Column: c}
		col := s.col(c.Name)

		q := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s WHERE %s", col, s.table, s.nonEmpty(c.Name))
		if err := repo.QueryRow(ctx, q).Scan(&v.Distinct); err != nil {
			return res, fmt.Errorf("distinct %s: %w", c.Name, err)
		}

		if c.Name == casos.ColEdad {
			q := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s WHERE %s", s.age(), s.age(), s.table, s.nonEmpty(c.Name))
			if err := repo.QueryRow(ctx, q).Scan(&v.MinAge, &v.MaxAge); err != nil {
				return res, fmt.Errorf("age range: %w", err)
			}
		} else {
			ex, err := examples(ctx, repo, s, c.Name)
			if err != nil {
				return res, fmt.Errorf("examples %s: %w", c.Name, err)
			}
			v.Examples = ex
		}
		res.Variables = append(res.Variables, v)
	}
	return res, nil
}

func examples(ctx context.Context, repo storage.Repository, s sqlText, name string) ([]string, error) {
	col := s.col(name)
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s ORDER BY %s", col, s.table, s.nonEmpty(name), col)
	rows, err := repo.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for len(out) < exampleLimit && rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Render implements Result.
func (r CatalogueResult) Render(w io.Writer) error {
	p := &printer{w: w}
	tw := tablewriter.NewWriter(p)
	tw.SetHeader([]string{"Variable", "Type", "Classification", "Distinct", "Range / examples"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, v := range r.Variables {
		var detail string
		switch {
		case v.Name == casos.ColEdad && v.MinAge.Valid:
			detail = fmt.Sprintf("%d to %d", v.MinAge.Int64, v.MaxAge.Int64)
		case v.Name == casos.ColEdad:
			detail = "no ages loaded"
		case len(v.Examples) == 0:
			detail = "no values"
		default:
			detail = strings.Join(v.Examples, ", ")
			if v.Distinct > int64(len(v.Examples)) {
				detail += ", ..."
			}
		}
		tw.Append([]string{v.Name, v.Type, v.Classification, fmt.Sprint(v.Distinct), detail})
	}
	tw.Render()
	return p.err
}
