// Package ddl is a small model for SQL table definitions plus per-dialect
// CREATE TABLE rendering for the relational sinks.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between backends that matter for a
// CREATE TABLE statement.
type Dialect struct {
	Name string
	// TextType is the column type used for unified trial columns.
	TextType string
	// Open and Close delimit a quoted identifier; Escape is what a literal
	// Close inside the identifier becomes.
	Open, Close, Escape string
	// Guard wraps a CREATE TABLE statement so it only runs when the table is
	// missing. Nil means the dialect supports CREATE TABLE IF NOT EXISTS.
	Guard func(fqn, create string) string
}

// Built-in dialects.
var (
	Postgres = Dialect{Name: "postgres", TextType: "TEXT", Open: `"`, Close: `"`, Escape: `""`}
	SQLite   = Dialect{Name: "sqlite", TextType: "TEXT", Open: `"`, Close: `"`, Escape: `""`}
	MySQL    = Dialect{Name: "mysql", TextType: "TEXT", Open: "`", Close: "`", Escape: "``"}
	MSSQL    = Dialect{
		Name: "mssql", TextType: "NVARCHAR(MAX)", Open: "[", Close: "]", Escape: "]]",
		Guard: func(fqn, create string) string {
			return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", strings.ReplaceAll(fqn, "'", "''"), create)
		},
	}
)

// QuoteIdent quotes one identifier segment.
func (d Dialect) QuoteIdent(id string) string {
	return d.Open + strings.ReplaceAll(id, d.Close, d.Escape) + d.Close
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes every column name.
func (d Dialect) QuoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.QuoteIdent(c)
	}
	return out
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE for t:
//
//	CREATE TABLE IF NOT EXISTS <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...
//	);
//
// Dialects with a Guard get a plain CREATE TABLE wrapped by it.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}
		def := d.QuoteIdent(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	quoted := d.QuoteFQN(fqn)
	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		return d.Guard(fqn, fmt.Sprintf("CREATE TABLE %s %s;", quoted, body)), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s;", quoted, body), nil
}
