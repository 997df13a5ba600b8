package sqlite

import (
	"context"
	"fmt"

	"trialetl/internal/ddl"
	"trialetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func ensureTable(ctx context.Context, repo storage.Repository, table string, columns []string) error {
	stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, ddl.SQLite.TextType), ddl.SQLite)
	if err != nil {
		return fmt.Errorf("sqlite ddl: %w", err)
	}
	return repo.Exec(ctx, stmt)
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlite", ensureTable)
}
