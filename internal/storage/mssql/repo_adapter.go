package mssql

import (
	"context"
	"fmt"

	"trialetl/internal/ddl"
	"trialetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

// wrappedRepo adapts *mssql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func ensureTable(ctx context.Context, repo storage.Repository, table string, columns []string) error {
	stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, ddl.MSSQL.TextType), ddl.MSSQL)
	if err != nil {
		return fmt.Errorf("mssql ddl: %w", err)
	}
	return repo.Exec(ctx, stmt)
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("mssql", ensureTable)
}
