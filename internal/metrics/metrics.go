// Package metrics is a small, backend-agnostic layer for recording pipeline
// metrics. It defaults to a no-op backend, so calls are always safe; the
// prompush and datadog subpackages provide real backends.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal       = "trialetl_step_total"
	StepDuration    = "trialetl_step_duration_seconds"
	RecordsTotal    = "trialetl_records_total"
	BatchesTotal    = "trialetl_batches_total"
	GroupsPerRecord = "trialetl_groups_per_record"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one observation of a distribution.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step (read, parse,
// transform, unify, load) and records its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds mirror the run summary: "responses", "read_skipped",
// "parse_errors", "records", "dropped" and "inserted".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches increments the flushed-batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// ObserveGroups records how many intervention groups one record carried.
func ObserveGroups(job string, n int) {
	backend.ObserveHistogram(GroupsPerRecord, float64(n), Labels{"job": job})
}
