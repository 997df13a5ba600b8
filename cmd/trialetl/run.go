// Package main wires the trial pipeline end to end: read responses, parse
// them concurrently, transform, unify into one table and load it into the
// configured sink. The CLI layer depends only on storage-agnostic interfaces
// and never imports database drivers directly.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trialetl/internal/config"
	"trialetl/internal/datasource"
	"trialetl/internal/datasource/file"
	"trialetl/internal/metrics"
	"trialetl/internal/parser"
	"trialetl/internal/parser/html"
	"trialetl/internal/parser/trialtext"
	"trialetl/internal/schema"
	"trialetl/internal/storage"
	"trialetl/internal/transformer"
	"trialetl/internal/transformer/builtin"
)

const thisMany = 3

// summary holds the counts reported at the end of a run.
type summary struct {
	responses   int
	skipped     int
	htmlErrors  int
	records     int
	dropped     int
	columns     int
	groupBlocks int
	inserted    int64
	batches     int64
}

// runtimeConfig is the resolved concurrency and batching for a run.
type runtimeConfig struct {
	parseWorkers int
	batchSize    int
}

// Test seams.
var (
	newRepositoryFn = storage.New

	newSourceFn = func(p config.Pipeline) (datasource.Source, error) {
		switch p.Source.Kind {
		case "file", "":
			return &file.Source{Path: p.Source.File.Path, Format: p.Source.File.Format}, nil
		default:
			return nil, fmt.Errorf("unsupported source.kind=%s", p.Source.Kind)
		}
	}
)

// run executes the pipeline described by p.
//
// Per-response read failures are skipped and summarized; parsing never
// fails. Sink failures abort the run. Row order in the sink equals response
// order in the source.
func run(ctx context.Context, p config.Pipeline) (summary, error) {
	var sum summary
	job := p.Job
	rt := newRuntimeConfig(p)
	log.Printf("runtime: parse_workers=%d batch=%d", rt.parseWorkers, rt.batchSize)

	// 1) Read.
	src, err := newSourceFn(p)
	if err != nil {
		return sum, err
	}
	readAgg := newErrAgg(thisMany)
	start := time.Now()
	responses, err := src.Read(ctx, func(id string, err error) {
		readAgg.add(fmt.Sprintf("%s: %v", id, err))
	})
	metrics.RecordStep(job, "read", err, time.Since(start))
	if err != nil {
		return sum, fmt.Errorf("read source: %w", err)
	}
	sum.responses = len(responses)
	sum.skipped = readAgg.count
	metrics.RecordRow(job, "responses", int64(sum.responses))
	metrics.RecordRow(job, "read_skipped", int64(sum.skipped))

	// 2) Parse.
	prs, useHTML := buildParser(p.Parser)
	htmlAgg := newErrAgg(thisMany)
	start = time.Now()
	recs, err := parseAll(ctx, responses, prs, useHTML, rt.parseWorkers, htmlAgg)
	metrics.RecordStep(job, "parse", err, time.Since(start))
	if err != nil {
		return sum, fmt.Errorf("parse: %w", err)
	}
	sum.htmlErrors = htmlAgg.count
	metrics.RecordRow(job, "parse_errors", int64(sum.htmlErrors))
	for _, r := range recs {
		metrics.ObserveGroups(job, r.MaxGroup())
	}

	// 3) Transform.
	chain, err := buildTransformers(p.Transform)
	if err != nil {
		return sum, err
	}
	start = time.Now()
	out := chain.Apply(recs)
	metrics.RecordStep(job, "transform", nil, time.Since(start))
	sum.records = len(out)
	sum.dropped = len(recs) - len(out)
	metrics.RecordRow(job, "records", int64(sum.records))
	metrics.RecordRow(job, "dropped", int64(sum.dropped))

	// 4) Unify once over the whole batch.
	start = time.Now()
	table := schema.Unify(out)
	metrics.RecordStep(job, "unify", nil, time.Since(start))
	sum.columns = table.Width()
	sum.groupBlocks = table.GroupBlocks()

	// 5) Load.
	start = time.Now()
	inserted, batches, err := load(ctx, p, table, rt.batchSize)
	metrics.RecordStep(job, "load", err, time.Since(start))
	sum.inserted, sum.batches = inserted, batches
	metrics.RecordRow(job, "inserted", inserted)
	metrics.RecordBatches(job, batches)

	logErrSummaries(readAgg, htmlAgg)
	logSummary(job, sum)
	return sum, err
}

// parseAll parses responses with at most workers goroutines. Results are
// stored by input index, so the output keeps source order.
func parseAll(
	ctx context.Context,
	responses []datasource.Response,
	prs parser.Parser,
	useHTML bool,
	workers int,
	htmlAgg *errAgg,
) ([]schema.TrialRecord, error) {
	results := make([][]schema.TrialRecord, len(responses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, resp := range responses {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text := resp.Text
			if useHTML {
				var err error
				if text, err = html.ToText(text); err != nil {
					htmlAgg.add(fmt.Sprintf("%s (%s): %v", resp.ID, resp.Title, err))
				}
			}
			results[i] = prs.Parse(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]schema.TrialRecord, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// load opens the sink, optionally creates the table and writes every row.
// It returns rows written and batches flushed.
func load(ctx context.Context, p config.Pipeline, t schema.Table, batchSize int) (int64, int64, error) {
	scfg := storageConfig(p, t.Columns)
	if scfg.Kind != "csv" {
		log.Printf("storage: kind=%s table=%s", scfg.Kind, scfg.Table)
	} else {
		log.Printf("storage: kind=csv path=%s", scfg.DSN)
	}

	repo, err := newRepositoryFn(ctx, scfg)
	if err != nil {
		return 0, 0, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, scfg.Kind, repo, scfg.Table, t.Columns); err != nil {
			return 0, 0, fmt.Errorf("apply DDL: %w", err)
		}
		log.Printf("storage: table ensured: %s", scfg.Table)
	}

	if len(t.Rows) == 0 {
		// Lets file sinks still emit the header.
		_, err := repo.CopyFrom(ctx, t.Columns, nil)
		return 0, 0, err
	}

	var batches int64
	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		n, err := repo.CopyFrom(ctx, columns, rows)
		if err == nil {
			batches++
		}
		return n, err
	}
	inserted, err := storage.LoadTable(ctx, t, batchSize, copyFn)
	if err != nil {
		return inserted, batches, fmt.Errorf("load: %w", err)
	}
	return inserted, batches, nil
}

// storageConfig maps the pipeline's storage section onto the factory config.
// File sinks receive their path as the DSN.
func storageConfig(p config.Pipeline, columns []string) storage.Config {
	kind := storageKind(p)
	cfg := storage.Config{
		Kind:    kind,
		DSN:     p.Storage.DB.DSN,
		Table:   p.Storage.DB.Table,
		Columns: columns,
	}
	if kind == "csv" {
		cfg.DSN = p.Storage.File.Path
	}
	return cfg
}

func storageKind(p config.Pipeline) string {
	if p.Storage.Kind == "" {
		return "csv"
	}
	return p.Storage.Kind
}

// buildParser returns the response parser and whether responses are
// converted from HTML first.
func buildParser(p config.Parser) (parser.Parser, bool) {
	prs := trialtext.New(trialtext.Options{
		MaxGroupIndex: p.Options.Int("max_group_index", 0),
	})
	return prs, p.Options.Bool("html", false)
}

// buildTransformers turns the transform list into a chain, in order.
func buildTransformers(ts []config.Transform) (transformer.Chain, error) {
	c := transformer.Chain{}
	for _, t := range ts {
		switch t.Kind {
		case "normalize":
			c = append(c, builtin.Normalize{
				MaxLength:  t.Options.Int("max_length", builtin.DefaultMaxLength),
				MaxLengths: t.Options.IntMap("max_lengths"),
			})
		case "trial_id":
			c = append(c, builtin.TrialID{Sources: t.Options.StringSlice("sources")})
		case "dedupe":
			c = append(c, builtin.DeDup{
				Keys:   t.Options.StringSlice("keys"),
				Policy: t.Options.String("policy", "keep-last"),
			})
		case "require":
			c = append(c, builtin.Require{Fields: t.Options.StringSlice("fields")})
		default:
			return nil, fmt.Errorf("unsupported transformer.kind=%s", t.Kind)
		}
	}
	return c, nil
}

func newRuntimeConfig(p config.Pipeline) runtimeConfig {
	return runtimeConfig{
		parseWorkers: pickInt(p.Runtime.ParseWorkers, getenvInt("TRIALETL_PARSE_WORKERS", 4)),
		batchSize:    pickInt(p.Runtime.BatchSize, getenvInt("TRIALETL_BATCH_SIZE", 1000)),
	}
}

func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// errAgg keeps the first few messages and a total count.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func logErrSummaries(readAgg, htmlAgg *errAgg) {
	if readAgg.count > 0 {
		log.Printf("read skipped: %d (showing first %d)", readAgg.count, len(readAgg.first))
		for i, s := range readAgg.first {
			log.Printf("  #%03d: %s", i+1, s)
		}
	}
	if htmlAgg.count > 0 {
		log.Printf("html fallbacks: %d (showing first %d)", htmlAgg.count, len(htmlAgg.first))
		for i, s := range htmlAgg.first {
			log.Printf("  #%03d: %s", i+1, s)
		}
	}
}

func logSummary(job string, s summary) {
	log.Printf(
		"summary: job=%s responses=%d skipped=%d records=%d dropped=%d columns=%d groups=%d inserted=%d batches=%d",
		job, s.responses, s.skipped, s.records, s.dropped, s.columns, s.groupBlocks, s.inserted, s.batches,
	)
}
