// Package builtin contains the stock transformers for trial records.
package builtin

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"trialetl/internal/schema"
)

// DefaultMaxLength is the value limit used when none is configured.
const DefaultMaxLength = 100

// Ellipsis is appended to truncated values.
const Ellipsis = "..."

// parenRe matches a parenthetical aside and the whitespace before it. Nested
// parentheses are not balanced; the match ends at the first ')'.
var parenRe = regexp.MustCompile(`\s*\([^)]*\)`)

// NormalizeValue cleans one free-text value:
//
//   - empty, whitespace-only and "not available" phrases become schema.Sentinel;
//   - parenthetical asides are removed and the result trimmed;
//   - values longer than maxLength runes are cut to maxLength and suffixed
//     with Ellipsis. A negative maxLength disables truncation.
//
// The sentinel check is repeated after the asides are removed, so that
// "unknown (not reported)" and "(none)" also collapse to the sentinel and
// NormalizeValue(NormalizeValue(x, n), n) == NormalizeValue(x, n).
func NormalizeValue(raw string, maxLength int) string {
	if isBlankOrSentinel(raw) {
		return schema.Sentinel
	}
	s := strings.TrimSpace(parenRe.ReplaceAllString(raw, ""))
	if isBlankOrSentinel(s) {
		return schema.Sentinel
	}
	if maxLength >= 0 && utf8.RuneCountInString(s) > maxLength {
		return truncateRunes(s, maxLength) + Ellipsis
	}
	return s
}

func isBlankOrSentinel(s string) bool {
	return strings.TrimSpace(s) == "" || schema.IsSentinelPhrase(s)
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Normalize applies NormalizeValue to every field of every record.
//
// Limits are looked up by the exact key first ("NCT_Number",
// "Group2_Description"), then by the group field name shared by all groups
// ("Description"), then fall back to MaxLength (DefaultMaxLength when zero).
type Normalize struct {
	MaxLength  int
	MaxLengths map[string]int
}

// Apply returns normalized copies of the input records.
func (n Normalize) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	out := make([]schema.TrialRecord, 0, len(in))
	for _, r := range in {
		c := make(schema.TrialRecord, len(r))
		for k, v := range r {
			c[k] = NormalizeValue(v, n.limitFor(k))
		}
		out = append(out, c)
	}
	return out
}

func (n Normalize) limitFor(key string) int {
	if l, ok := n.MaxLengths[key]; ok {
		return l
	}
	if _, field, ok := schema.SplitGroupKey(key); ok {
		if l, ok := n.MaxLengths[field]; ok {
			return l
		}
	}
	if n.MaxLength != 0 {
		return n.MaxLength
	}
	return DefaultMaxLength
}
