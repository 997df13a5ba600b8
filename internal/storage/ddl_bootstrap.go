package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates table with the given columns through repo.Exec when
// it does not exist yet. Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, columns []string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the DDLBootstrapper registered for kind. Kinds without one
// (file sinks) are a no-op.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, columns []string) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return nil
	}
	if len(columns) == 0 {
		return fmt.Errorf("ensure table %s: no columns", table)
	}
	return fn(ctx, repo, table, columns)
}
