// Package csvfile is a flat-file storage backend: the unified table is
// written as RFC 4180 CSV to the path given as the DSN.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"trialetl/internal/storage"
)

// Repository writes rows to a CSV file. The header is written before the
// first batch; later batches must use the same columns.
type Repository struct {
	f      *os.File
	w      *csv.Writer
	header []string
}

// NewRepository creates (or truncates) the file at path, creating parent
// directories as needed.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("csv: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csv: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create: %w", err)
	}
	return &Repository{f: f, w: csv.NewWriter(f)}, nil
}

// CopyFrom appends rows, writing the header on first use.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.header == nil {
		if err := r.w.Write(columns); err != nil {
			return 0, fmt.Errorf("csv: header: %w", err)
		}
		r.header = append([]string(nil), columns...)
	} else if len(columns) != len(r.header) {
		return 0, fmt.Errorf("csv: got %d columns, header has %d", len(columns), len(r.header))
	}

	rec := make([]string, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return int64(i), fmt.Errorf("csv: row %d has %d values, want %d", i, len(row), len(columns))
		}
		for j, v := range row {
			rec[j] = toString(v)
		}
		if err := r.w.Write(rec); err != nil {
			return int64(i), fmt.Errorf("csv: write: %w", err)
		}
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return 0, fmt.Errorf("csv: flush: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec is a no-op; a CSV file has no statements.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close flushes and closes the file.
func (r *Repository) Close() {
	r.w.Flush()
	_ = r.f.Close()
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DSN)
	})
}
