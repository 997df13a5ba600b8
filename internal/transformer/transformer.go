// Package transformer defines batch transformations over parsed trial
// records. A transformer receives the whole batch and returns the batch to
// hand to the next step; it may drop records but must not edit the records
// it was given in place.
package transformer

import "trialetl/internal/schema"

// Transformer is one step of the chain.
type Transformer interface {
	Apply([]schema.TrialRecord) []schema.TrialRecord
}

// Func adapts a plain function to Transformer.
type Func func([]schema.TrialRecord) []schema.TrialRecord

// Apply calls f.
func (f Func) Apply(in []schema.TrialRecord) []schema.TrialRecord { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every step in order.
func (c Chain) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
