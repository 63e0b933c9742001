// This file implements a generic, batched loader that drains rows from a
// channel and invokes a provided bulk-insert function (CopyFn) per batch.
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.

package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns' order) and return the number of
// rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadStats summarizes a LoadBatches run.
type LoadStats struct {
	Inserted int64
	Batches  int64
}

// LoadBatches drains rows from 'in', groups them into batches of size
// 'batchSize', and calls 'copyFn' for each non-empty batch. It returns the
// totals reported by copyFn and the first error encountered.
//
// Cancellation: returns (stats, ctx.Err()) when canceled. When verbose is
// set, progress is logged on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
	verbose bool,
) (LoadStats, error) {
	var stats LoadStats
	if batchSize <= 0 {
		return stats, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return stats, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		stats.Inserted += n

		// Reuse allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: insert failed after=%d total=%d err=%v", n, stats.Inserted, err)
			return err
		}

		stats.Batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(stats.Inserted-lastTotal) / sinceLast.Seconds()
		}
		if verbose {
			log.Printf(
				"loader: batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
				stats.Batches, rps, n, stats.Inserted, now.Sub(start).Truncate(time.Millisecond),
			)
		}
		lastFlushTS = now
		lastTotal = stats.Inserted
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case row, ok := <-in:
			if !ok {
				// Channel closed: flush remaining rows.
				if err := flush(); err != nil {
					return stats, err
				}
				return stats, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
}
