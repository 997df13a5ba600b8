// Package datasource defines where model responses come from.
package datasource

import "context"

// Response is one model answer waiting to be parsed.
type Response struct {
	// ID identifies the response in logs: a file name, or "path:line" for
	// JSONL dumps.
	ID string
	// Title and Link describe the article the response was produced for,
	// when the dump carries them. They are not part of the output columns.
	Title string
	Link  string
	// Text is the decoded response body.
	Text string
}

// SkipFunc is told about items a source could not turn into a Response.
type SkipFunc func(id string, err error)

// Source yields every response of a run, in a stable order. Unusable items
// are reported through skip and left out; the returned error is reserved
// for failures that make the whole source unreadable.
type Source interface {
	Read(ctx context.Context, skip SkipFunc) ([]Response, error)
}
