package ddl

// ColumnDef describes a single column. Name is unquoted; quoting happens at
// render time.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name, optionally schema-qualified in dotted form
// ("schema.table"), and the ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TextTable builds a definition in which every column has the same nullable
// text type. The unified trial table is all text: missing values are the
// "NA" sentinel, never NULL, but columns stay nullable so rows written by
// other tools are accepted.
func TextTable(fqn string, columns []string, textType string) TableDef {
	t := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(columns))}
	for _, c := range columns {
		t.Columns = append(t.Columns, ColumnDef{Name: c, SQLType: textType, Nullable: true})
	}
	return t
}
