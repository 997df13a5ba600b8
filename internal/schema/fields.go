// Package schema defines the field vocabulary shared by the parser, the
// transformers and the unifier, together with the TrialRecord type and the
// batch-level column computation.
//
// The tables in this file are the single source of truth for field names.
// They are exposed through accessor functions that return fresh copies, so no
// caller can change the schema another package sees at runtime.
package schema

import (
	"strconv"
	"strings"
)

// Sentinel marks a field that is absent or could not be recovered.
const Sentinel = "NA"

var fixedFields = [...]string{
	"Trial_Info",
	"NCT_Number",
	"Trial_Phase",
	"Cancer_Type",
	"Cancer_Description",
	"Trial_Sponsor",
	"Novel_Findings",
	"Conclusions",
	"Unique_Information",
	"Subgroups_with_Heightened_Response",
}

var groupFields = [...]string{
	"Description",
	"Group_Type",
	"Drugs_Studied",
	"Treatment_ORR",
	"PFS",
	"OS",
	"Discontinuation_Rate",
	"Endpoints_Met",
	"Cancer_Stages",
	"Targets",
	"Previous_Drug_Types",
	"Drug_Resistance",
	"Drug_Type_Resistance",
	"Brain_Metastases",
	"Previous_Surgery",
	"Advanced_Cancer",
	"Metastatic_Cancer",
	"Previously_Untreated",
	"Previous_Specific_Drugs",
	"Not_Previously_Taken_Drugs",
	"Therapy_Line",
	"Treatment_Tolerance",
	"Adverse_Reactions",
	"Intervention_Drug_Approval",
	"Other_Efficacy_Data",
}

// ResultLabel pairs a line prefix recognized in the "Trial Results:" section
// with the fixed field it populates. Prefixes use spaces while keys use
// underscores; consumers rely on this exact table.
type ResultLabel struct {
	Prefix string
	Field  string
}

var resultLabels = [...]ResultLabel{
	{Prefix: "Novel Findings:", Field: "Novel_Findings"},
	{Prefix: "Conclusions:", Field: "Conclusions"},
	{Prefix: "Unique Information:", Field: "Unique_Information"},
	{Prefix: "Subgroups with Heightened Response:", Field: "Subgroups_with_Heightened_Response"},
}

var sentinelPhrases = [...]string{
	"na",
	"n/a",
	"not specified",
	"not applicable",
	"not available",
	"unknown",
}

// FixedFields returns the per-trial field names in column order.
func FixedFields() []string { return append([]string(nil), fixedFields[:]...) }

// GroupFields returns the per-group field names in column order.
func GroupFields() []string { return append([]string(nil), groupFields[:]...) }

// ResultLabels returns the results-section prefix table in match order.
func ResultLabels() []ResultLabel { return append([]ResultLabel(nil), resultLabels[:]...) }

// SentinelPhrases returns the lower-case phrases that mean "not available".
func SentinelPhrases() []string { return append([]string(nil), sentinelPhrases[:]...) }

// NumFixedFields and NumGroupFields size the column blocks.
const (
	NumFixedFields = len(fixedFields)
	NumGroupFields = len(groupFields)
)

// IsSentinelPhrase reports whether s, trimmed and lower-cased, is one of the
// "not available" phrases. The empty string is not a phrase.
func IsSentinelPhrase(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range sentinelPhrases {
		if s == p {
			return true
		}
	}
	return false
}

// IsFixedField reports whether name is one of the per-trial fields.
func IsFixedField(name string) bool {
	for _, f := range fixedFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsGroupField reports whether name is one of the per-group field names
// (without the Group<N>_ prefix).
func IsGroupField(name string) bool {
	for _, f := range groupFields {
		if f == name {
			return true
		}
	}
	return false
}

// GroupKey returns the record key for field of group index i, e.g.
// GroupKey(2, "PFS") == "Group2_PFS".
func GroupKey(i int, field string) string {
	return "Group" + strconv.Itoa(i) + "_" + field
}

// SplitGroupKey is the inverse of GroupKey. ok is false for keys that do not
// have the form Group<digits>_<rest> or whose index overflows an int.
func SplitGroupKey(key string) (index int, field string, ok bool) {
	rest, found := strings.CutPrefix(key, "Group")
	if !found {
		return 0, "", false
	}
	digits, field, found := strings.Cut(rest, "_")
	if !found || digits == "" {
		return 0, "", false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, "", false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}
	return n, field, true
}
