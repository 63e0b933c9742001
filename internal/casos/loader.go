package casos

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"covideda/internal/metrics"
	pcsv "covideda/internal/parser/csv"
	"covideda/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// skipLogLimit caps per-row skip log lines on very dirty inputs.
const skipLogLimit = 400

// LoadOptions tunes a load. Zero values select defaults.
type LoadOptions struct {
	Job           string
	Table         string
	Comma         rune
	BatchSize     int
	ChannelBuffer int
	Verbose       bool

	// ProgressEvery is the read progress interval in rows when Verbose is
	// set. Defaults to 100000.
	ProgressEvery int
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Job == "" {
		o.Job = "covideda"
	}
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Comma == 0 {
		o.Comma = ','
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 5000
	}
	if o.ChannelBuffer < 0 {
		o.ChannelBuffer = 0
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = 100_000
	}
	return o
}

// Summary reports the outcome of a load.
type Summary struct {
	RunID    uuid.UUID
	Table    string
	Read     int64 // data rows read, header excluded
	Inserted int64
	Skipped  int64 // wrong field count or unparsable
	Batches  int64
	Elapsed  time.Duration
}

// String renders s for humans, e.g.
// "loaded 1,204 rows into casos (3 skipped, 1,207 read) in 1.2s".
func (s Summary) String() string {
	return fmt.Sprintf("loaded %s rows into %s (%s skipped, %s read) in %s",
		humanize.Comma(s.Inserted), s.Table, humanize.Comma(s.Skipped),
		humanize.Comma(s.Read), s.Elapsed.Truncate(time.Millisecond))
}

// CreateTable drops the case table when present and creates it empty.
func CreateTable(ctx context.Context, repo storage.Repository, table string) error {
	if table == "" {
		table = DefaultTable
	}
	return storage.RecreateTable(ctx, repo, table, ColumnDefs())
}

// Load replaces the case table with the rows of the CSV file at path.
func Load(ctx context.Context, repo storage.Repository, path string, opt LoadOptions) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("casos: open %s: %w", path, err)
	}
	defer f.Close()
	adviseSequential(f)
	return LoadReader(ctx, repo, f, opt)
}

// LoadReader replaces the case table with the rows read from r. The first
// row is a header and is ignored. Rows with exactly FieldCount fields are
// inserted verbatim; any other row is skipped and counted.
//
// The table is recreated first, then every row is inserted inside a single
// transaction. On any error the transaction is rolled back and the table is
// left empty.
func LoadReader(ctx context.Context, repo storage.Repository, r io.Reader, opt LoadOptions) (sum Summary, err error) {
	opt = opt.withDefaults()
	start := time.Now()
	sum = Summary{RunID: uuid.New(), Table: opt.Table}
	defer func() {
		sum.Elapsed = time.Since(start)
		metrics.RecordStep(opt.Job, "load", err, sum.Elapsed)
	}()

	if err := CreateTable(ctx, repo, opt.Table); err != nil {
		return sum, fmt.Errorf("casos: %w", err)
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		return sum, fmt.Errorf("casos: %w", err)
	}

	var (
		rows    = make(chan []any, opt.ChannelBuffer)
		columns = ColumnNames()
		rstats  pcsv.Stats
		lstats  storage.LoadStats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		logged := 0
		popt := pcsv.Options{
			HasHeader:      true,
			Comma:          opt.Comma,
			ExpectedFields: FieldCount,
		}
		if opt.Verbose {
			popt.LogEvery = opt.ProgressEvery
		}
		var err error
		rstats, err = pcsv.StreamRows(gctx, r, popt, rows, func(line int, err error) {
			if logged < skipLogLimit {
				logged++
				log.Printf("loader[%s]: skipping line %d: %v", sum.RunID, line, err)
			}
		})
		return err
	})

	g.Go(func() error {
		copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
			return tx.CopyFrom(ctx, opt.Table, cols, batch)
		}
		var err error
		lstats, err = storage.LoadBatches(gctx, columns, rows, opt.BatchSize, copyFn, opt.Verbose)
		return err
	})

	werr := g.Wait()

	sum.Read = int64(rstats.Records)
	sum.Skipped = int64(rstats.Skipped)
	sum.Batches = lstats.Batches
	metrics.RecordRow(opt.Job, "read", sum.Read)
	metrics.RecordRow(opt.Job, "skipped", sum.Skipped)

	if werr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("loader[%s]: rollback: %v", sum.RunID, rbErr)
		}
		return sum, fmt.Errorf("casos: load: %w", werr)
	}
	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("casos: %w", err)
	}

	sum.Inserted = lstats.Inserted
	metrics.RecordRow(opt.Job, "inserted", sum.Inserted)
	metrics.RecordBatches(opt.Job, sum.Batches)
	if opt.Verbose {
		log.Printf("loader[%s]: %s (%d batches)", sum.RunID, sum, sum.Batches)
	}
	return sum, nil
}
