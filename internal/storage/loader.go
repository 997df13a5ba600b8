package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"trialetl/internal/schema"
)

// CopyFn abstracts a backend's bulk insert. Implementations insert rows
// aligned to columns and return the number of rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error encountered; on cancellation it returns
// (total, ctx.Err()). Progress is logged on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		// copyFn must not retain rows; the next batch reuses the array.
		batch = make([][]any, 0, batchSize)
		if err != nil {
			log.Printf("loader: copy failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		log.Printf("loader: batch=%d inserted=%d total=%d elapsed=%s since_last=%s",
			batches, n, total,
			now.Sub(start).Truncate(time.Millisecond),
			now.Sub(lastFlushTS).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// LoadTable writes every row of t through copyFn in batches of batchSize,
// in row order.
func LoadTable(ctx context.Context, t schema.Table, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan []any, batchSize)
	go func() {
		defer close(in)
		for _, r := range t.Rows {
			row := make([]any, len(r))
			for i, v := range r {
				row[i] = v
			}
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	return LoadBatches(ctx, t.Columns, in, batchSize, copyFn)
}
