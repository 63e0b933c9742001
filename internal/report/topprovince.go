package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/fatih/color"
)

// ProvinceCount is a province with a case count.
type ProvinceCount struct {
	Province string
	Count    int64
}

// TopProvinceResult is the output of report 6. A nil entry means no
// confirmed cases for that sex.
type TopProvinceResult struct {
	Female *ProvinceCount
	Male   *ProvinceCount
}

// TopProvinceBySex finds, for each sex, the province with most confirmed
// cases. Ties go to the province name that sorts first.
func TopProvinceBySex(ctx context.Context, repo storage.Repository, table string) (TopProvinceResult, error) {
	var res TopProvinceResult
	var err error
	if res.Female, err = topProvince(ctx, repo, table, SexFemale); err != nil {
		return res, fmt.Errorf("females: %w", err)
	}
	if res.Male, err = topProvince(ctx, repo, table, SexMale); err != nil {
		return res, fmt.Errorf("males: %w", err)
	}
	return res, nil
}

func topProvince(ctx context.Context, repo storage.Repository, table, sex string) (*ProvinceCount, error) {
	s := newSQL(repo, table)
	prov := s.col(casos.ColProvincia)
	q := fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM %s WHERE TRIM(%s) = ? AND %s GROUP BY %s ORDER BY COUNT(*) DESC, %s ASC",
		prov, s.table, s.col(casos.ColSexo), s.confirmed(), prov, prov)

	rows, err := repo.Query(ctx, q, sex, ConfirmedPattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var (
		name sql.NullString
		pc   ProvinceCount
	)
	if err := rows.Scan(&name, &pc.Count); err != nil {
		return nil, err
	}
	pc.Province = name.String
	return &pc, nil
}

// Render implements Result.
func (r TopProvinceResult) Render(w io.Writer) error {
	p := &printer{w: w}
	line := func(label string, pc *ProvinceCount) {
		if pc == nil {
			p.colorf(color.FgRed, "No confirmed cases found for %s.\n", label)
			return
		}
		p.printf("Province with most confirmed cases among %s: %s (%d cases)\n", label, pc.Province, pc.Count)
	}
	line("females", r.Female)
	line("males", r.Male)
	return p.err
}
