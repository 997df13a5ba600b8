// Package storage contains storage-agnostic contracts and utilities: the
// Repository interface every sink implements, a factory that backends
// register into at init time, DDL bootstrap hooks and a batched loader.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is a sink for the unified table.
type Repository interface {
	// CopyFrom writes rows aligned to columns and reports how many were
	// written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a backend statement, typically DDL. File sinks may ignore it.
	Exec(ctx context.Context, sql string) error
	// Close releases the underlying connection or file.
	Close()
}

// Config carries the backend-agnostic sink settings.
type Config struct {
	// Kind selects the backend ("csv", "sqlite", "postgres", "mssql", "mysql").
	Kind string
	// DSN is the driver connection string, or the output path for file sinks.
	DSN string
	// Table is the destination table. File sinks ignore it.
	Table string
	// Columns is the column order rows will be written in.
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository with the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
