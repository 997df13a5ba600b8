package schema

// TrialRecord maps a field name (fixed, or Group<N>_<field>) to its value.
//
// A record leaving the parser has every fixed field and a dense group block
// for indices 1..MaxGroup(). Records are treated as read-only after parsing;
// transformers that change values work on a Clone.
type TrialRecord map[string]string

// NewTrialRecord returns a record with every fixed field set to Sentinel.
func NewTrialRecord() TrialRecord {
	r := make(TrialRecord, NumFixedFields)
	for _, f := range fixedFields {
		r[f] = Sentinel
	}
	return r
}

// Clone returns a shallow copy of r.
func (r TrialRecord) Clone() TrialRecord {
	out := make(TrialRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MaxGroup returns the largest group index present among r's keys, or 0.
func (r TrialRecord) MaxGroup() int {
	n := 0
	for k := range r {
		if i, _, ok := SplitGroupKey(k); ok && i > n {
			n = i
		}
	}
	return n
}

// FillGroups sets every missing Group<i>_<field> key for i in 1..n to
// Sentinel. Existing values are kept.
func (r TrialRecord) FillGroups(n int) {
	for i := 1; i <= n; i++ {
		for _, f := range groupFields {
			k := GroupKey(i, f)
			if _, ok := r[k]; !ok {
				r[k] = Sentinel
			}
		}
	}
}

// Get returns the value for key, or Sentinel when the key is absent.
func (r TrialRecord) Get(key string) string {
	if v, ok := r[key]; ok {
		return v
	}
	return Sentinel
}
