package builtin

import (
	"regexp"

	"trialetl/internal/schema"
)

// registryIDRe matches ClinicalTrials.gov, ISRCTN and ANZCTR identifiers.
var registryIDRe = regexp.MustCompile(`NCT\d+|ISRCTN\d+|ACTRN\d+`)

// TrialID recovers a registry identifier for records whose NCT_Number is the
// sentinel, searching the listed source fields in order (Trial_Info when
// empty). Records that already carry an identifier are passed through.
type TrialID struct {
	Sources []string
}

// Apply returns the batch with NCT_Number filled where possible.
func (t TrialID) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	sources := t.Sources
	if len(sources) == 0 {
		sources = []string{"Trial_Info"}
	}
	out := make([]schema.TrialRecord, 0, len(in))
	for _, r := range in {
		if r.Get("NCT_Number") != schema.Sentinel {
			out = append(out, r)
			continue
		}
		id := ""
		for _, f := range sources {
			if id = registryIDRe.FindString(r[f]); id != "" {
				break
			}
		}
		if id == "" {
			out = append(out, r)
			continue
		}
		c := r.Clone()
		c["NCT_Number"] = id
		out = append(out, c)
	}
	return out
}
