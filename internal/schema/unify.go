package schema

// Table is the rectangular projection of a batch of records: one header and
// one row per record, every row exactly len(Columns) wide.
type Table struct {
	Columns []string
	Rows    [][]string
}

// MaxGroupIndex returns the largest group index found in any record's keys.
func MaxGroupIndex(recs []TrialRecord) int {
	n := 0
	for _, r := range recs {
		if m := r.MaxGroup(); m > n {
			n = m
		}
	}
	return n
}

// Columns returns the column order for a batch whose widest record has
// maxGroups groups: the fixed fields, then one block of group fields per
// index 1..maxGroups.
func Columns(maxGroups int) []string {
	if maxGroups < 0 {
		maxGroups = 0
	}
	cols := make([]string, 0, NumFixedFields+maxGroups*NumGroupFields)
	cols = append(cols, fixedFields[:]...)
	for i := 1; i <= maxGroups; i++ {
		for _, f := range groupFields {
			cols = append(cols, GroupKey(i, f))
		}
	}
	return cols
}

// Unify computes the batch schema from recs and projects every record onto
// it, padding missing columns with Sentinel. The schema is derived from this
// call's input only; call it once with the complete batch. recs are not
// modified.
func Unify(recs []TrialRecord) Table {
	cols := Columns(MaxGroupIndex(recs))
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r.Get(c)
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

// Width returns the number of columns.
func (t Table) Width() int { return len(t.Columns) }

// GroupBlocks returns how many group blocks the column list carries.
func (t Table) GroupBlocks() int {
	if len(t.Columns) <= NumFixedFields {
		return 0
	}
	return (len(t.Columns) - NumFixedFields) / NumGroupFields
}
