package builtin

import (
	"strings"

	"github.com/zeebo/xxh3"

	"trialetl/internal/schema"
)

// DeDup collapses records that describe the same trial, for example when a
// search returns one article under several queries. The key is built from
// the configured fields and hashed with xxh3; a record whose key fields are
// all the sentinel has no identity and always passes through.
//
// Policies:
//
//   - "keep-first": the earliest occurrence wins
//   - "keep-last": the latest occurrence wins (default)
//   - "most-complete": the record with the most non-sentinel values wins;
//     ties go to the later record
type DeDup struct {
	Keys   []string
	Policy string
}

// Apply returns the surviving records in input order.
func (d DeDup) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[uint64]slot, len(in))
	keep := make([]bool, len(in))

	for i, r := range in {
		h, ok := d.keyOf(r)
		if !ok {
			keep[i] = true
			continue
		}
		prev, seen := winners[h]
		switch policy {
		case "keep-first":
			if !seen {
				winners[h] = slot{index: i}
			}
		case "most-complete":
			s := slot{index: i, score: completeness(r)}
			if !seen || s.score >= prev.score {
				winners[h] = s
			}
		default:
			winners[h] = slot{index: i}
		}
	}

	for _, s := range winners {
		keep[s.index] = true
	}

	out := make([]schema.TrialRecord, 0, len(in))
	for i, r := range in {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

// keyOf hashes the key fields. ok is false when every key field is the
// sentinel.
func (d DeDup) keyOf(r schema.TrialRecord) (uint64, bool) {
	var b strings.Builder
	known := false
	for i, k := range d.Keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		v := r.Get(k)
		if v != schema.Sentinel {
			known = true
		}
		b.WriteString(strings.ToLower(strings.TrimSpace(v)))
	}
	if !known {
		return 0, false
	}
	return xxh3.HashString(b.String()), true
}

func completeness(r schema.TrialRecord) int {
	n := 0
	for _, v := range r {
		if v != schema.Sentinel && v != "" {
			n++
		}
	}
	return n
}
