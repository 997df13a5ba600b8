// Package parser defines the contract between raw model output and the
// record pipeline. Concrete parsers live in subpackages.
package parser

import "trialetl/internal/schema"

// Parser turns one response text into records. Implementations must be safe
// to call concurrently on independent inputs and must not fail: unrecognized
// input degrades to sentinel-filled records.
type Parser interface {
	Parse(text string) []schema.TrialRecord
}
