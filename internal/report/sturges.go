package report

import (
	"context"
	"fmt"
	"io"

	"covideda/internal/casos"
	"covideda/internal/storage"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Valid age range used by the age reports.
const (
	MinAge = 0
	MaxAge = 120
)

// IntervalCount is a histogram class with its frequency.
type IntervalCount struct {
	Interval
	Count int
}

// SturgesResult is the output of report 4.
type SturgesResult struct {
	N        int
	Min, Max int
	K        int
	Width    int
	Classes  []IntervalCount

	// Unbinned counts ages past the last class, which happens when the
	// range is an exact multiple of K.
	Unbinned int
}

// SturgesHistogram bins the ages of confirmed cases in [MinAge, MaxAge]
// into Sturges classes.
func SturgesHistogram(ctx context.Context, repo storage.Repository, table string) (SturgesResult, error) {
	ages, err := confirmedAges(ctx, repo, table)
	if err != nil {
		return SturgesResult{}, err
	}
	return BuildSturges(ages), nil
}

func confirmedAges(ctx context.Context, repo storage.Repository, table string) ([]int, error) {
	s := newSQL(repo, table)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s AND %s BETWEEN ? AND ? AND %s",
		s.age(), s.table, s.nonEmpty(casos.ColEdad), s.age(), s.confirmed())
	rows, err := repo.Query(ctx, q, MinAge, MaxAge, ConfirmedPattern)
	if err != nil {
		return nil, fmt.Errorf("confirmed ages: %w", err)
	}
	defer rows.Close()

	var ages []int
	for rows.Next() {
		var a int
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		ages = append(ages, a)
	}
	return ages, rows.Err()
}

// BuildSturges computes the Sturges histogram of ages. An empty input
// yields a result with N == 0.
func BuildSturges(ages []int) SturgesResult {
	res := SturgesResult{N: len(ages)}
	if res.N == 0 {
		return res
	}
	res.Min, res.Max = lo.Min(ages), lo.Max(ages)
	res.K = SturgesK(res.N)
	res.Width = ClassWidth(res.Max-res.Min, res.K)

	ivs := Intervals(res.Min, res.Width, res.K)
	res.Classes = make([]IntervalCount, len(ivs))
	for i, iv := range ivs {
		res.Classes[i].Interval = iv
	}
	for _, a := range ages {
		if i := Bin(ivs, a); i >= 0 {
			res.Classes[i].Count++
		} else {
			res.Unbinned++
		}
	}
	return res
}

// Render implements Result.
func (r SturgesResult) Render(w io.Writer) error {
	p := &printer{w: w}
	if r.N == 0 {
		p.colorf(color.FgRed, "Not enough data: no confirmed cases with a valid age.\n")
		return p.err
	}
	p.printf("Total ages:        %d\n", r.N)
	p.printf("Classes (k):       %d\n", r.K)
	p.printf("Class width:       %d\n", r.Width)
	p.printf("Range:             %d to %d\n\n", r.Min, r.Max)

	tw := tablewriter.NewWriter(p)
	tw.SetHeader([]string{"Interval", "Frequency"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, c := range r.Classes {
		tw.Append([]string{fmt.Sprintf("%d - %d", c.Lo, c.Hi), fmt.Sprint(c.Count)})
	}
	tw.Render()

	if r.Unbinned > 0 {
		p.warn("%d ages fall past the last interval and are not counted", r.Unbinned)
	}
	return p.err
}
