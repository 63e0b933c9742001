package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/census"
	"covideda/internal/storage"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// ProvinceRatio is a province count normalized by population.
type ProvinceRatio struct {
	Province   string
	Count      int64
	Population int64
	Percent    float64
}

// RatioResult is the output of reports 7 and 8.
type RatioResult struct {
	// Metric names the counted cases ("confirmed" or "deceased").
	Metric string

	// Ascending is true when the lowest ratio is the answer.
	Ascending bool

	// Rows are sorted by Percent in the report's direction, ties by
	// province name.
	Rows []ProvinceRatio

	// Unmatched lists province names absent from the census, in query
	// order.
	Unmatched []string
}

// Winner returns the first row, or false when no province matched.
func (r RatioResult) Winner() (ProvinceRatio, bool) {
	if len(r.Rows) == 0 {
		return ProvinceRatio{}, false
	}
	return r.Rows[0], true
}

// LowestConfirmedRatio ranks provinces by confirmed cases over population,
// lowest first.
func LowestConfirmedRatio(ctx context.Context, repo storage.Repository, table string, pop *census.Table) (RatioResult, error) {
	s := newSQL(repo, table)
	prov := s.col(casos.ColProvincia)
	q := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s GROUP BY %s", prov, s.table, s.confirmed(), prov)

	counts, err := countBy(ctx, repo, q, ConfirmedPattern)
	if err != nil {
		return RatioResult{}, fmt.Errorf("confirmed by province: %w", err)
	}
	return joinPopulation("confirmed", true, counts, pop), nil
}

// HighestDeceasedRatio ranks provinces by confirmed deceased cases over
// population, highest first.
func HighestDeceasedRatio(ctx context.Context, repo storage.Repository, table string, pop *census.Table) (RatioResult, error) {
	s := newSQL(repo, table)
	prov := s.col(casos.ColProvincia)
	q := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE UPPER(TRIM(%s)) = ? AND %s GROUP BY %s",
		prov, s.table, s.col(casos.ColFallecido), s.confirmed(), prov)

	counts, err := countBy(ctx, repo, q, DeceasedYes, ConfirmedPattern)
	if err != nil {
		return RatioResult{}, fmt.Errorf("deceased by province: %w", err)
	}
	return joinPopulation("deceased", false, counts, pop), nil
}

// joinPopulation merges counts whose names normalize to the same province,
// so "Cordoba" and "Córdoba " add up to one row carrying the census name
// and the census population once.
func joinPopulation(metric string, ascending bool, counts []Count, pop *census.Table) RatioResult {
	res := RatioResult{Metric: metric, Ascending: ascending}
	byKey := map[string]int{}
	unmatched := map[string]bool{}
	for _, c := range counts {
		key := census.NormalizeProvince(c.Label)
		if i, ok := byKey[key]; ok {
			res.Rows[i].Count += c.N
			continue
		}
		p, ok := pop.Population(c.Label)
		if !ok {
			if !unmatched[key] {
				unmatched[key] = true
				res.Unmatched = append(res.Unmatched, strings.TrimSpace(c.Label))
			}
			continue
		}
		byKey[key] = len(res.Rows)
		res.Rows = append(res.Rows, ProvinceRatio{
			Province:   pop.Name(c.Label),
			Count:      c.N,
			Population: p,
		})
	}
	for i := range res.Rows {
		res.Rows[i].Percent = Percent(res.Rows[i].Count, res.Rows[i].Population)
	}
	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.Percent != b.Percent {
			if ascending {
				return a.Percent < b.Percent
			}
			return a.Percent > b.Percent
		}
		return a.Province < b.Province
	})
	return res
}

// Render implements Result.
func (r RatioResult) Render(w io.Writer) error {
	p := &printer{w: w}
	for _, name := range r.Unmatched {
		p.warn("province not found in census: %s", name)
	}

	best, ok := r.Winner()
	if !ok {
		p.colorf(color.FgRed, "Not enough data: no province with %s cases matched the census.\n", r.Metric)
		return p.err
	}

	label := strings.ToUpper(r.Metric[:1]) + r.Metric[1:]
	tw := tablewriter.NewWriter(p)
	tw.SetHeader([]string{"Province", label, "Population", "% " + r.Metric})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, row := range r.Rows {
		tw.Append([]string{row.Province, fmt.Sprint(row.Count), fmt.Sprint(row.Population), fmt.Sprintf("%.2f %%", row.Percent)})
	}
	tw.Render()

	which := "highest"
	if r.Ascending {
		which = "lowest"
	}
	p.printf("\nProvince with the %s %s ratio: %s (%.2f %%)\n", which, r.Metric, best.Province, best.Percent)
	return p.err
}
