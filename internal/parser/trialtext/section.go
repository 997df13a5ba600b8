// Package trialtext parses the three-section trial summary produced by the
// language model:
//
//	Trial Information:
//	Trial_Info: ...
//	NCT_Number: ...
//	Study Groups:
//	Group1: Description: ..., Group_Type: ..., Drugs_Studied: ...
//	Trial Results:
//	Novel Findings: ...
//
// The parser is line-oriented and tolerant: lines it does not recognize are
// skipped, and fields it never sees stay at schema.Sentinel.
package trialtext

import (
	"regexp"
	"strconv"
	"strings"

	"trialetl/internal/parser"
	"trialetl/internal/schema"
)

type section int

const (
	sectionNone section = iota
	sectionTrialInfo
	sectionGroups
	sectionResults
)

const (
	headerTrialInfo = "Trial Information:"
	headerGroups    = "Study Groups:"
	headerResults   = "Trial Results:"
)

var groupLineRe = regexp.MustCompile(`^Group(\d+):(.*)`)

var (
	fixedFields  = schema.FixedFields()
	groupFields  = schema.GroupFields()
	resultLabels = schema.ResultLabels()
)

// Options tunes the parser.
type Options struct {
	// MaxGroupIndex ignores Group<N>: lines with N above the limit. Zero means
	// no limit.
	MaxGroupIndex int
}

// Parser is the section parser. The zero value is ready to use and holds no
// mutable state, so one Parser may serve many goroutines.
type Parser struct {
	opt Options
}

var _ parser.Parser = (*Parser)(nil)

// New returns a Parser configured with opt.
func New(opt Options) *Parser {
	return &Parser{opt: opt}
}

var defaultParser = New(Options{})

// Parse parses text with default options.
func Parse(text string) []schema.TrialRecord { return defaultParser.Parse(text) }

// Parse scans text line by line and returns exactly one record.
func (p *Parser) Parse(text string) []schema.TrialRecord {
	rec := schema.NewTrialRecord()
	cur := sectionNone
	maxGroup := 0

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, headerTrialInfo):
			cur = sectionTrialInfo
		case strings.HasPrefix(line, headerGroups):
			cur = sectionGroups
		case strings.HasPrefix(line, headerResults):
			cur = sectionResults
		}

		switch cur {
		case sectionTrialInfo:
			p.trialInfoLine(rec, line)
		case sectionGroups:
			if n, ok := p.groupLine(rec, line); ok && n > maxGroup {
				maxGroup = n
			}
		case sectionResults:
			p.resultsLine(rec, line)
		}
	}

	rec.FillGroups(maxGroup)
	return []schema.TrialRecord{rec}
}

// trialInfoLine assigns the text after the first colon to the first fixed
// field whose "<name>:" prefixes the line.
func (p *Parser) trialInfoLine(rec schema.TrialRecord, line string) {
	for _, f := range fixedFields {
		if strings.HasPrefix(line, f+":") {
			_, v, _ := strings.Cut(line, ":")
			rec[f] = strings.TrimSpace(v)
			return
		}
	}
}

// groupLine extracts every "<field>:" occurrence from a Group<N>: line. The
// value runs up to the next comma. It returns the group index and whether
// the line was a group line.
func (p *Parser) groupLine(rec schema.TrialRecord, line string) (int, bool) {
	m := groupLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	if p.opt.MaxGroupIndex > 0 && n > p.opt.MaxGroupIndex {
		return 0, false
	}

	rest := strings.TrimSpace(m[2])
	for _, f := range groupFields {
		label := f + ":"
		_, after, found := strings.Cut(rest, label)
		if !found {
			continue
		}
		v, _, _ := strings.Cut(after, ",")
		rec[schema.GroupKey(n, f)] = strings.TrimSpace(v)
	}
	return n, true
}

// resultsLine matches the space-separated results labels.
func (p *Parser) resultsLine(rec schema.TrialRecord, line string) {
	for _, l := range resultLabels {
		if strings.HasPrefix(line, l.Prefix) {
			_, v, _ := strings.Cut(line, ":")
			rec[l.Field] = strings.TrimSpace(v)
			return
		}
	}
}
