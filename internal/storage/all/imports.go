// Package all wires the built-in storage backends into the storage factory.
//
// It exists for side effects only: a blank import runs each backend's init,
// which registers its factory (and DDL bootstrapper, for SQL backends).
//
//   - "csv"      (trialetl/internal/storage/csvfile)
//   - "postgres" (trialetl/internal/storage/postgres)
//   - "mssql"    (trialetl/internal/storage/mssql)
//   - "mysql"    (trialetl/internal/storage/mysql)
//   - "sqlite"   (trialetl/internal/storage/sqlite)
//
// A binary that needs only a subset can import the backends directly.
package all

import (
	_ "trialetl/internal/storage/csvfile"
	_ "trialetl/internal/storage/mssql"
	_ "trialetl/internal/storage/mysql"
	_ "trialetl/internal/storage/postgres"
	_ "trialetl/internal/storage/sqlite"
)
