// Command trialparse parses saved model responses one file at a time and
// writes each parsed record as JSON next to its input. It is the quickest
// way to see what the section parser recovers from a single response before
// running a whole pipeline.
//
// Each file is:
//
//  1. read and, with -html, converted from HTML to plain text
//  2. parsed into one trial record
//  3. normalized with the default value limit (unless -raw)
//
// Example:
//
//	trialparse -dir ./responses -pattern "*.txt" -suffix ".record.json"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"trialetl/internal/parser/html"
	"trialetl/internal/parser/trialtext"
	"trialetl/internal/schema"
	"trialetl/internal/transformer/builtin"
)

type options struct {
	html   bool
	raw    bool
	suffix string
}

// processFile parses the response at path and writes path+suffix. With an
// empty suffix the JSON goes to stdout.
func processFile(path string, opt options) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(b)
	if opt.html {
		if text, err = html.ToText(text); err != nil {
			fmt.Fprintf(os.Stderr, "%s: html fallback: %v\n", path, err)
		}
	}

	recs := trialtext.Parse(text)
	if !opt.raw {
		recs = builtin.Normalize{}.Apply(recs)
	}
	out, err := json.MarshalIndent(ordered(recs[0]), "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if opt.suffix == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path+opt.suffix, out, 0o644)
}

// ordered returns the record as key/value pairs in column order.
func ordered(r schema.TrialRecord) []field {
	cols := schema.Columns(r.MaxGroup())
	out := make([]field, 0, len(cols))
	for _, c := range cols {
		out = append(out, field{Name: c, Value: r.Get(c)})
	}
	return out
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func main() {
	dir := flag.String("dir", ".", "Directory containing responses")
	pattern := flag.String("pattern", "*.txt", "Glob pattern for selecting input files")
	suffix := flag.String("suffix", ".record.json", "Suffix appended to output files; empty prints to stdout")
	htmlIn := flag.Bool("html", false, "convert HTML responses to text before parsing")
	raw := flag.Bool("raw", false, "skip value normalization")

	flag.Parse()

	matches, err := filepath.Glob(filepath.Join(*dir, *pattern))
	if err != nil {
		fmt.Fprintf(os.Stderr, "glob error: %v\n", err)
		os.Exit(1)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "no files matched")
		os.Exit(1)
	}

	opt := options{html: *htmlIn, raw: *raw, suffix: *suffix}
	failed := 0
	for _, path := range matches {
		if err := processFile(path, opt); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
