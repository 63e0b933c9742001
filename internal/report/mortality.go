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

// BandStats are the per-band figures of report 5.
type BandStats struct {
	Interval
	DeceasedFemales int64
	DeceasedMales   int64
	TotalMales      int64
	MaleFatality    float64 // percent, 0 when TotalMales is 0
}

// MortalityResult is the output of report 5.
type MortalityResult struct {
	Bands []BandStats

	// PeakFemales and PeakMaleFatality index Bands; the first maximum wins.
	PeakFemales      int
	PeakMaleFatality int
}

// SexAgeMortality counts deceased females and male case fatality per
// 5-year age band.
func SexAgeMortality(ctx context.Context, repo storage.Repository, table string) (MortalityResult, error) {
	s := newSQL(repo, table)
	bands := AgeBands()
	res := MortalityResult{Bands: make([]BandStats, len(bands))}
	for i, b := range bands {
		res.Bands[i].Interval = b
	}

	validAge := fmt.Sprintf("%s AND %s BETWEEN ? AND ?", s.nonEmpty(casos.ColEdad), s.age())
	sexo, fallecido := s.col(casos.ColSexo), s.col(casos.ColFallecido)

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ? AND %s", s.age(), s.table, sexo, fallecido, validAge)
	rows, err := repo.Query(ctx, q, SexFemale, DeceasedYes, MinAge, MaxAge)
	if err != nil {
		return res, fmt.Errorf("deceased females: %w", err)
	}
	for rows.Next() {
		var age int
		if err := rows.Scan(&age); err != nil {
			rows.Close()
			return res, err
		}
		if i := Bin(bands, age); i >= 0 {
			res.Bands[i].DeceasedFemales++
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return res, err
	}
	rows.Close()

	q = fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ? AND %s", s.age(), fallecido, s.table, sexo, validAge)
	rows, err = repo.Query(ctx, q, SexMale, MinAge, MaxAge)
	if err != nil {
		return res, fmt.Errorf("males: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			age int
			dec sql.NullString
		)
		if err := rows.Scan(&age, &dec); err != nil {
			return res, err
		}
		i := Bin(bands, age)
		if i < 0 {
			continue
		}
		res.Bands[i].TotalMales++
		if strings.ToUpper(strings.TrimSpace(dec.String)) == DeceasedYes {
			res.Bands[i].DeceasedMales++
		}
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	females := make([]int64, len(res.Bands))
	fatality := make([]float64, len(res.Bands))
	for i := range res.Bands {
		b := &res.Bands[i]
		b.MaleFatality = Percent(b.DeceasedMales, b.TotalMales)
		females[i] = b.DeceasedFemales
		fatality[i] = b.MaleFatality
	}
	res.PeakFemales = argmax(females)
	res.PeakMaleFatality = argmax(fatality)
	return res, nil
}

// Render implements Result.
func (r MortalityResult) Render(w io.Writer) error {
	p := &printer{w: w}

	tw := tablewriter.NewWriter(p)
	tw.SetHeader([]string{"Interval", "Deceased females", "Deceased males", "Males", "% males deceased"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	for _, b := range r.Bands {
		tw.Append([]string{
			fmt.Sprintf("%3d - %d", b.Lo, b.Hi),
			fmt.Sprint(b.DeceasedFemales),
			fmt.Sprint(b.DeceasedMales),
			fmt.Sprint(b.TotalMales),
			fmt.Sprintf("%.2f%%", b.MaleFatality),
		})
	}
	tw.Render()

	if len(r.Bands) == 0 {
		return p.err
	}
	f, m := r.Bands[r.PeakFemales], r.Bands[r.PeakMaleFatality]
	p.printf("\nInterval with most deceased females: (%d, %d)\n", f.Lo, f.Hi)
	p.printf("Interval with highest male fatality: (%d, %d)\n", m.Lo, m.Hi)
	return p.err
}
