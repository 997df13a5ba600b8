package storage

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"trialetl/internal/schema"
)

func feed(n int) <-chan []any {
	in := make(chan []any, n)
	for i := 0; i < n; i++ {
		in <- []any{i}
	}
	close(in)
	return in
}

// TestLoadBatches_Batching checks batch boundaries, totals and that the
// first copy error stops the loader.
func TestLoadBatches_Batching(t *testing.T) {
	t.Parallel()

	boom := errors.New("copy failed")
	tests := []struct {
		name      string
		rows      int
		batchSize int
		failOn    int // 1-based call that fails; 0 = never
		wantSizes []int
		wantTotal int64
		wantErr   error
	}{
		{name: "exact multiple", rows: 6, batchSize: 3, wantSizes: []int{3, 3}, wantTotal: 6},
		{name: "remainder flushed", rows: 7, batchSize: 3, wantSizes: []int{3, 3, 1}, wantTotal: 7},
		{name: "single batch", rows: 2, batchSize: 10, wantSizes: []int{2}, wantTotal: 2},
		{name: "no rows", rows: 0, batchSize: 4, wantSizes: nil, wantTotal: 0},
		{name: "error stops", rows: 5, batchSize: 2, failOn: 2, wantSizes: []int{2, 2}, wantTotal: 2, wantErr: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sizes []int
			copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
				sizes = append(sizes, len(rows))
				if len(sizes) == tt.failOn {
					return 0, boom
				}
				return int64(len(rows)), nil
			}
			total, err := LoadBatches(context.Background(), []string{"c"}, feed(tt.rows), tt.batchSize, copyFn)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if total != tt.wantTotal {
				t.Fatalf("total = %d, want %d", total, tt.wantTotal)
			}
			if !reflect.DeepEqual(sizes, tt.wantSizes) {
				t.Fatalf("batch sizes = %v, want %v", sizes, tt.wantSizes)
			}
		})
	}
}

// TestLoadBatches_ContextCancel checks the loader exits on context cancellation.
func TestLoadBatches_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	columns := []string{"c"}
	in := make(chan []any, 1)
	in <- []any{1}

	// copyFn sleeps to simulate slow I/O; cancel triggers early exit.
	copyFn := func(ctx context.Context, _ []string, rows [][]any) (int64, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
			return int64(len(rows)), nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, columns, in, 2, copyFn)
		errCh <- err
	}()

	cancel() // cancel promptly
	close(in)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected cancellation error, got nil")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after context cancel")
	}
}

func TestLoadTable_OrderAndBatches(t *testing.T) {
	t.Parallel()

	tbl := schema.Table{
		Columns: []string{"NCT_Number", "Trial_Info"},
		Rows: [][]string{
			{"NCT1", "a"}, {"NCT2", "b"}, {"NCT3", "c"}, {"NCT4", "d"}, {"NCT5", "e"},
		},
	}

	var (
		sizes []int
		seen  []any
		cols  []string
	)
	copyFn := func(_ context.Context, c []string, rows [][]any) (int64, error) {
		cols = c
		sizes = append(sizes, len(rows))
		for _, r := range rows {
			seen = append(seen, r[0])
		}
		return int64(len(rows)), nil
	}

	n, err := LoadTable(context.Background(), tbl, 2, copyFn)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("batch sizes = %v, want [2 2 1]", sizes)
	}
	if !reflect.DeepEqual(seen, []any{"NCT1", "NCT2", "NCT3", "NCT4", "NCT5"}) {
		t.Fatalf("row order = %v", seen)
	}
	if !reflect.DeepEqual(cols, tbl.Columns) {
		t.Fatalf("columns = %v", cols)
	}
}

func TestLoadTable_StopsOnError(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 50)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	wantErr := errors.New("disk full")
	var calls int32
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		atomic.AddInt32(&calls, 1)
		return 0, wantErr
	}

	_, err := LoadTable(context.Background(), schema.Table{Columns: []string{"c"}, Rows: rows}, 5, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("copyFn calls = %d, want 1", got)
	}
}

func TestLoadTable_EmptyAndInvalid(t *testing.T) {
	t.Parallel()

	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		t.Errorf("copyFn called for empty table")
		return 0, nil
	}
	if n, err := LoadTable(context.Background(), schema.Table{Columns: []string{"c"}}, 10, copyFn); err != nil || n != 0 {
		t.Fatalf("empty table: n=%d err=%v", n, err)
	}
	if _, err := LoadTable(context.Background(), schema.Table{}, 0, copyFn); err == nil {
		t.Fatalf("batchSize 0: expected error")
	}
}
