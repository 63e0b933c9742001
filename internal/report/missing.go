package report

import (
	"context"
	"fmt"
	"io"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// MissingThreshold is the missing-age percentage from which imputing is
// recommended over dropping.
const MissingThreshold = 5.0

// Recommendation is the suggested treatment of rows without age.
type Recommendation int

const (
	// RecommendNone means there were no rows to judge.
	RecommendNone Recommendation = iota
	// RecommendDrop suggests deleting rows without age.
	RecommendDrop
	// RecommendImpute suggests filling missing ages with a central value.
	RecommendImpute
)

func (r Recommendation) String() string {
	switch r {
	case RecommendDrop:
		return "rows without age can be dropped"
	case RecommendImpute:
		return "replace missing ages with a central value (mean or median)"
	default:
		return "no data"
	}
}

// Recommend applies the threshold: below it dropping is safe.
func Recommend(percent float64) Recommendation {
	if percent < MissingThreshold {
		return RecommendDrop
	}
	return RecommendImpute
}

// MissingResult is the output of report 2.
type MissingResult struct {
	Total          int64
	Missing        int64
	Percent        float64
	Recommendation Recommendation
}

// MissingAge measures how many rows lack an age.
func MissingAge(ctx context.Context, repo storage.Repository, table string) (MissingResult, error) {
	s := newSQL(repo, table)
	var res MissingResult

	if err := repo.QueryRow(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&res.Total); err != nil {
		return res, fmt.Errorf("count rows: %w", err)
	}
	edad := s.col(casos.ColEdad)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL OR %s = ''", s.table, edad, edad)
	if err := repo.QueryRow(ctx, q).Scan(&res.Missing); err != nil {
		return res, fmt.Errorf("count missing ages: %w", err)
	}

	if res.Total == 0 {
		return res, nil
	}
	res.Percent = Percent(res.Missing, res.Total)
	res.Recommendation = Recommend(res.Percent)
	return res, nil
}

// Render implements Result.
func (r MissingResult) Render(w io.Writer) error {
	p := &printer{w: w}
	if r.Total == 0 {
		p.colorf(color.FgRed, "Not enough data: the table has no rows.\n")
		return p.err
	}
	p.printf("Total records:       %s\n", humanize.Comma(r.Total))
	p.printf("Records without age: %s\n", humanize.Comma(r.Missing))
	p.printf("Missing percentage:  %.2f%%\n", r.Percent)

	attr := color.FgGreen
	if r.Recommendation == RecommendImpute {
		attr = color.FgYellow
	}
	p.colorf(attr, "Recommendation: %s.\n", r.Recommendation)
	return p.err
}
