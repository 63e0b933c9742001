// Package report implements the case table reports: nine numbered
// exploratory reports plus two diagnostic listings (89 and 99).
//
// Every report is split in two steps. A compute function queries the store
// through an explicitly passed storage.Repository and returns a typed result;
// the result's Render method writes human-readable text. Compute functions do
// not print, and Render methods do not query.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"covideda/internal/casos"
	"covideda/internal/census"
	"covideda/internal/metrics"
	"covideda/internal/storage"

	"github.com/fatih/color"
)

// Literal values matched by the reports. They are always bound as query
// parameters.
const (
	ConfirmedPattern = "%confirmado%"
	DeceasedYes      = "SI"
	SexFemale        = "F"
	SexMale          = "M"
)

// Options are the inputs shared by every report.
type Options struct {
	// Job labels metrics. Defaults to "covideda".
	Job string

	// Table is the case table. Defaults to casos.DefaultTable.
	Table string

	// ProvinceCensusPath feeds reports 7 and 8.
	ProvinceCensusPath string

	// SexCensusPath feeds report 9.
	SexCensusPath string
}

func (o Options) withDefaults() Options {
	if o.Job == "" {
		o.Job = "covideda"
	}
	if o.Table == "" {
		o.Table = casos.DefaultTable
	}
	return o
}

// Result is the rendered form every report produces.
type Result interface {
	Render(w io.Writer) error
}

// Report is one selectable report.
type Report struct {
	ID    string
	Title string
	run   func(ctx context.Context, repo storage.Repository, opt Options) (Result, error)
}

// ErrUnknownReport is returned by Run for an unregistered id.
var ErrUnknownReport = errors.New("unknown report")

var registry = []Report{
	{"1", "Variable catalogue", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return VariableCatalogue(ctx, r, o.Table)
	}},
	{"2", "Missing age rate", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return MissingAge(ctx, r, o.Table)
	}},
	{"3", "Deceased age by province and outliers", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return DeceasedAges(ctx, r, o.Table)
	}},
	{"4", "Confirmed age intervals (Sturges)", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return SturgesHistogram(ctx, r, o.Table)
	}},
	{"5", "Deceased by sex and age band", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return SexAgeMortality(ctx, r, o.Table)
	}},
	{"6", "Top province by confirmed cases per sex", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return TopProvinceBySex(ctx, r, o.Table)
	}},
	{"7", "Lowest confirmed/population ratio", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		tbl, missing, err := loadCensus(o.ProvinceCensusPath)
		if missing != nil || err != nil {
			return missing, err
		}
		return LowestConfirmedRatio(ctx, r, o.Table, tbl)
	}},
	{"8", "Highest deceased/population ratio", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		tbl, missing, err := loadCensus(o.ProvinceCensusPath)
		if missing != nil || err != nil {
			return missing, err
		}
		return HighestDeceasedRatio(ctx, r, o.Table, tbl)
	}},
	{"9", "Confirmed/population index by sex", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		tbl, missing, err := loadCensus(o.SexCensusPath)
		if missing != nil || err != nil {
			return missing, err
		}
		if !tbl.HasSex() {
			return message{color.FgRed, fmt.Sprintf("Census file %s has no %q column.", o.SexCensusPath, census.ColSex)}, nil
		}
		return ConfirmedIndexBySex(ctx, r, o.Table, tbl)
	}},
	{"89", "Sex and confirmation diagnosis", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return Diagnose(ctx, r, o.Table)
	}},
	{"99", "Distinct classification values", func(ctx context.Context, r storage.Repository, o Options) (Result, error) {
		return ClassificationValues(ctx, r, o.Table)
	}},
}

// All returns every report in menu order.
func All() []Report {
	out := make([]Report, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a report by id.
func Lookup(id string) (Report, bool) {
	id = strings.TrimSpace(id)
	for _, r := range registry {
		if r.ID == id {
			return r, true
		}
	}
	return Report{}, false
}

// IDs returns every report id in menu order.
func IDs() []string {
	out := make([]string, len(registry))
	for i, r := range registry {
		out[i] = r.ID
	}
	return out
}

// Run computes report id and renders it to w. The duration and outcome are
// recorded as a metrics step named "report_<id>".
func Run(ctx context.Context, repo storage.Repository, id string, opt Options, w io.Writer) (err error) {
	r, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("report: %w %q (known: %s)", ErrUnknownReport, id, strings.Join(IDs(), ", "))
	}
	opt = opt.withDefaults()
	defer metrics.Since(opt.Job, "report_"+r.ID, time.Now(), &err)

	if err := title(w, fmt.Sprintf("Report %s: %s", r.ID, r.Title)); err != nil {
		return fmt.Errorf("report %s: render: %w", r.ID, err)
	}
	res, err := r.run(ctx, repo, opt)
	if err != nil {
		return fmt.Errorf("report %s: %w", r.ID, err)
	}
	if err := res.Render(w); err != nil {
		return fmt.Errorf("report %s: render: %w", r.ID, err)
	}
	return nil
}

// loadCensus returns either a table, a message result for a missing file, or
// an error.
func loadCensus(path string) (*census.Table, Result, error) {
	tbl, err := census.Load(path)
	if errors.Is(err, census.ErrNotFound) {
		return nil, message{color.FgRed, fmt.Sprintf("Census file %s not found.", path)}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return tbl, nil, nil
}

// message is a one-line result (missing inputs, insufficient data).
type message struct {
	attr color.Attribute
	text string
}

func (m message) Render(w io.Writer) error {
	_, err := color.New(m.attr).Fprintln(w, m.text)
	return err
}

func title(w io.Writer, s string) error {
	p := &printer{w: w}
	p.colorf(color.Bold, "\n%s\n\n", s)
	return p.err
}

// printer accumulates the first write error so Render methods can print
// freely and report failure once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n, err := p.w.Write(b)
	p.err = err
	return n, err
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p, format, args...)
}

func (p *printer) colorf(attr color.Attribute, format string, args ...any) {
	color.New(attr).Fprintf(p, format, args...)
}

// warn prints a single warning line.
func (p *printer) warn(format string, args ...any) {
	p.colorf(color.FgYellow, "warning: "+format+"\n", args...)
}

// sqlText builds the dialect-specific fragments shared by the reports.
type sqlText struct {
	d     storage.Dialect
	table string
}

func newSQL(repo storage.Repository, table string) sqlText {
	return sqlText{d: repo.Dialect(), table: repo.Dialect().QuoteIdent(table)}
}

// col quotes a column name.
func (s sqlText) col(name string) string { return s.d.QuoteIdent(name) }

// nonEmpty matches rows where name is neither NULL nor the empty string.
func (s sqlText) nonEmpty(name string) string {
	c := s.col(name)
	return c + " IS NOT NULL AND " + c + " <> ''"
}

// confirmed matches confirmed cases; binds ConfirmedPattern.
func (s sqlText) confirmed() string {
	return "LOWER(" + s.col(casos.ColClasificacion) + ") LIKE ?"
}

// age is the age column cast to an integer.
func (s sqlText) age() string { return s.d.CastInt(s.col(casos.ColEdad)) }

// countBy runs a two-column (label, count) query and returns the pairs in
// result order.
func countBy(ctx context.Context, repo storage.Repository, query string, args ...any) ([]Count, error) {
	rows, err := repo.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var (
			label sql.NullString
			n     int64
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		out = append(out, Count{Label: label.String, Null: !label.Valid, N: n})
	}
	return out, rows.Err()
}

// Count is a labelled count. Null marks a NULL label.
type Count struct {
	Label string
	Null  bool
	N     int64
}
