package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"covideda/internal/casos"
	"covideda/internal/census"
	"covideda/internal/storage"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// SexCell is the confirmed index of one sex in one province.
type SexCell struct {
	Confirmed  int64
	Population int64
	Index      float64 // percent
}

// ProvinceSexRow is one line of the province × sex matrix. A zero cell means
// no matched data for that sex.
type ProvinceSexRow struct {
	Province string
	F, M     SexCell
}

// Verdict names the sex with the higher national index.
type Verdict int

const (
	VerdictInsufficient Verdict = iota
	VerdictFemales
	VerdictMales
	VerdictEqual
)

func (v Verdict) String() string {
	switch v {
	case VerdictFemales:
		return "females"
	case VerdictMales:
		return "males"
	case VerdictEqual:
		return "equal"
	default:
		return "insufficient data"
	}
}

// SexIndexResult is the output of report 9.
type SexIndexResult struct {
	Rows []ProvinceSexRow // sorted by province

	// TotalF and TotalM aggregate matched rows only.
	TotalF, TotalM SexCell

	Verdict Verdict

	// Unmatched lists (province, sex) pairs absent from the census.
	Unmatched []census.Key
}

// ConfirmedIndexBySex computes confirmed cases over population per province
// and sex, national totals per sex and which sex has the higher index.
func ConfirmedIndexBySex(ctx context.Context, repo storage.Repository, table string, pop *census.Table) (SexIndexResult, error) {
	s := newSQL(repo, table)
	prov, sexo := s.col(casos.ColProvincia), s.col(casos.ColSexo)
	q := fmt.Sprintf("SELECT %s, %s, COUNT(*) FROM %s WHERE %s AND %s IN (?, ?) GROUP BY %s, %s",
		prov, sexo, s.table, s.confirmed(), sexo, prov, sexo)

	rows, err := repo.Query(ctx, q, ConfirmedPattern, SexFemale, SexMale)
	if err != nil {
		return SexIndexResult{}, fmt.Errorf("confirmed by province and sex: %w", err)
	}
	defer rows.Close()

	var res SexIndexResult
	// Rows are keyed by normalized province name; spellings of one province
	// add up into a single row.
	byProvince := map[string]*ProvinceSexRow{}
	unmatched := map[census.Key]bool{}
	for rows.Next() {
		var (
			name sql.NullString
			sex  string
			n    int64
		)
		if err := rows.Scan(&name, &sex, &n); err != nil {
			return res, err
		}
		sex = census.NormalizeSex(sex)
		key := census.NormalizeProvince(name.String)

		p, ok := pop.PopulationBySex(name.String, sex)
		if !ok {
			if k := (census.Key{Province: key, Sex: sex}); !unmatched[k] {
				unmatched[k] = true
				res.Unmatched = append(res.Unmatched, census.Key{Province: strings.TrimSpace(name.String), Sex: sex})
			}
			continue
		}
		row := byProvince[key]
		if row == nil {
			row = &ProvinceSexRow{Province: pop.Name(name.String)}
			byProvince[key] = row
		}
		cell := &row.M
		if sex == SexFemale {
			cell = &row.F
		}
		cell.Confirmed += n
		cell.Population = p
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	res.Rows = lo.Map(lo.Values(byProvince), func(r *ProvinceSexRow, _ int) ProvinceSexRow {
		r.F.Index = Percent(r.F.Confirmed, r.F.Population)
		r.M.Index = Percent(r.M.Confirmed, r.M.Population)
		return *r
	})
	sort.Slice(res.Rows, func(i, j int) bool { return res.Rows[i].Province < res.Rows[j].Province })

	res.TotalF = total(res.Rows, func(r ProvinceSexRow) SexCell { return r.F })
	res.TotalM = total(res.Rows, func(r ProvinceSexRow) SexCell { return r.M })
	res.Verdict = verdict(res.TotalF, res.TotalM)
	return res, nil
}

func total(rows []ProvinceSexRow, pick func(ProvinceSexRow) SexCell) SexCell {
	c := SexCell{
		Confirmed:  lo.SumBy(rows, func(r ProvinceSexRow) int64 { return pick(r).Confirmed }),
		Population: lo.SumBy(rows, func(r ProvinceSexRow) int64 { return pick(r).Population }),
	}
	c.Index = Percent(c.Confirmed, c.Population)
	return c
}

func verdict(f, m SexCell) Verdict {
	switch {
	case f.Population == 0 || m.Population == 0:
		return VerdictInsufficient
	case f.Index > m.Index:
		return VerdictFemales
	case m.Index > f.Index:
		return VerdictMales
	default:
		return VerdictEqual
	}
}

// Render implements Result.
func (r SexIndexResult) Render(w io.Writer) error {
	p := &printer{w: w}
	for _, k := range r.Unmatched {
		p.warn("census has no data for (%s, %s)", k.Province, k.Sex)
	}

	tw := tablewriter.NewWriter(p)
	tw.SetHeader([]string{"Province", "Conf. F", "Pop. F", "% F", "Conf. M", "Pop. M", "% M"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range r.Rows {
		tw.Append([]string{
			row.Province,
			fmt.Sprint(row.F.Confirmed), fmt.Sprint(row.F.Population), fmt.Sprintf("%.2f", row.F.Index),
			fmt.Sprint(row.M.Confirmed), fmt.Sprint(row.M.Population), fmt.Sprintf("%.2f", row.M.Index),
		})
	}
	tw.Render()

	p.printf("\nNational index by sex:\n")
	for _, t := range []struct {
		label string
		cell  SexCell
	}{{"Females", r.TotalF}, {"Males", r.TotalM}} {
		if t.cell.Population > 0 {
			p.printf("- %s: %.2f %% (confirmed: %d, population: %d)\n", t.label, t.cell.Index, t.cell.Confirmed, t.cell.Population)
		}
	}

	switch r.Verdict {
	case VerdictInsufficient:
		p.colorf(color.FgRed, "\nNot enough data: census population is missing for at least one sex.\n")
	case VerdictEqual:
		p.colorf(color.FgGreen, "\nThe index is equal for both sexes.\n")
	default:
		p.colorf(color.FgGreen, "\nHigher confirmed index among: %s\n", strings.ToUpper(r.Verdict.String()))
	}
	return p.err
}
