package builtin

import "trialetl/internal/schema"

// Require removes records in which every listed field is the sentinel. A
// parse of unrelated text yields such a record, so requiring NCT_Number and
// Trial_Info drops responses that carried no trial at all.
type Require struct {
	Fields []string
}

// Apply returns the records that have at least one of the fields set.
func (r Require) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	if len(r.Fields) == 0 {
		return in
	}
	out := make([]schema.TrialRecord, 0, len(in))
	for _, rec := range in {
		for _, f := range r.Fields {
			if rec.Get(f) != schema.Sentinel {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
