package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/aclements/go-moremath/stats"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// MinOutlierSample is the smallest number of ages the IQR rule runs on.
const MinOutlierSample = 4

// outlierExamples caps the outliers listed in the rendered report.
const outlierExamples = 10

// ProvinceMean is the mean deceased age of one province.
type ProvinceMean struct {
	Province string
	Mean     float64
}

// DeceasedResult is the output of report 3.
type DeceasedResult struct {
	ByProvince []ProvinceMean

	// Ages are every valid deceased age, ascending.
	Ages []int

	// Mean and StdDev describe Ages overall.
	Mean, StdDev float64

	// Bounds and Outliers are only set when len(Ages) >= MinOutlierSample.
	Bounds   Bounds
	Outliers []int
}

// Sufficient reports whether enough ages were found for outlier detection.
func (r DeceasedResult) Sufficient() bool { return len(r.Ages) >= MinOutlierSample }

// DeceasedAges computes the mean deceased age per province and detects
// outliers among deceased ages with the IQR rule.
func DeceasedAges(ctx context.Context, repo storage.Repository, table string) (DeceasedResult, error) {
	s := newSQL(repo, table)
	var res DeceasedResult

	prov := s.col(casos.ColProvincia)
	where := fmt.Sprintf("%s = ? AND %s", s.col(casos.ColFallecido), s.nonEmpty(casos.ColEdad))

	q := fmt.Sprintf("SELECT %s, AVG(%s) FROM %s WHERE %s GROUP BY %s ORDER BY %s",
		prov, s.d.CastFloat(s.col(casos.ColEdad)), s.table, where, prov, prov)
	rows, err := repo.Query(ctx, q, DeceasedYes)
	if err != nil {
		return res, fmt.Errorf("mean age by province: %w", err)
	}
	for rows.Next() {
		var (
			name sql.NullString
			mean float64
		)
		if err := rows.Scan(&name, &mean); err != nil {
			rows.Close()
			return res, err
		}
		res.ByProvince = append(res.ByProvince, ProvinceMean{Province: name.String, Mean: mean})
	}
	if err := rows.Close(); err != nil {
		return res, err
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	q = fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.age(), s.table, where)
	rows, err = repo.Query(ctx, q, DeceasedYes)
	if err != nil {
		return res, fmt.Errorf("deceased ages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var age int
		if err := rows.Scan(&age); err != nil {
			return res, err
		}
		res.Ages = append(res.Ages, age)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}
	sort.Ints(res.Ages)

	if len(res.Ages) > 0 {
		sample := stats.Sample{Xs: lo.Map(res.Ages, func(a int, _ int) float64 { return float64(a) })}
		res.Mean = sample.Mean()
		if len(res.Ages) > 1 {
			res.StdDev = sample.StdDev()
		}
	}

	if res.Sufficient() {
		res.Bounds = IQRBounds(res.Ages)
		res.Outliers = res.Bounds.Outliers(res.Ages)
	}
	return res, nil
}

// Render implements Result.
func (r DeceasedResult) Render(w io.Writer) error {
	p := &printer{w: w}

	if len(r.ByProvince) == 0 {
		p.printf("No deceased cases with a recorded age.\n")
	} else {
		tw := tablewriter.NewWriter(p)
		tw.SetHeader([]string{"Province", "Mean age"})
		tw.SetAutoFormatHeaders(false)
		tw.SetAutoWrapText(false)
		tw.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
		for _, pm := range r.ByProvince {
			tw.Append([]string{pm.Province, fmt.Sprintf("%.2f years", pm.Mean)})
		}
		tw.Render()
	}

	if len(r.Ages) > 0 {
		p.printf("\nAll deceased: n=%d mean=%.2f stddev=%.2f\n", len(r.Ages), r.Mean, r.StdDev)
	}

	p.printf("\nOutliers among deceased ages (IQR rule)\n")
	if !r.Sufficient() {
		p.colorf(color.FgRed, "Not enough data to detect outliers (need at least %d ages, have %d).\n", MinOutlierSample, len(r.Ages))
		return p.err
	}
	b := r.Bounds
	p.printf("Q1: %d | Q3: %d | IQR: %d\n", b.Q1, b.Q3, b.IQR)
	p.printf("Lower bound: %.1f\n", b.Lower)
	p.printf("Upper bound: %.1f\n", b.Upper)
	p.printf("Found %d outliers among deceased ages.\n", len(r.Outliers))
	if len(r.Outliers) > 0 {
		ex := lo.Map(lo.Slice(r.Outliers, 0, outlierExamples), func(a int, _ int) string { return fmt.Sprint(a) })
		more := ""
		if len(r.Outliers) > outlierExamples {
			more = ", ..."
		}
		p.printf("Examples: %s%s\n", strings.Join(ex, ", "), more)
	}
	return p.err
}
