package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("trials", "parse", nil, 2*time.Second)
	RecordStep("trials", "load", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: counters=%d histograms=%d, want 2/2", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.value != 1 {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if c0.labels["step"] != "parse" || c0.labels["status"] != "success" || c0.labels["job"] != "trials" {
		t.Fatalf("counter[0].labels = %v", c0.labels)
	}
	if h := fb.histograms[0]; h.name != StepDuration || h.value < 1.999 || h.value > 2.001 {
		t.Fatalf("hist[0] = %#v, want ~2s", h)
	}

	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1].status = %q, want failure", got)
	}
	if h := fb.histograms[1]; h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1].value = %v, want ~1.5", h.value)
	}
}

func TestRecordRowAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("trials", "responses", 3)
	RecordRow("trials", "parse_errors", 0) // ignored
	RecordRow("trials", "inserted", 5)
	RecordBatches("trials", 2)
	RecordBatches("trials", -1) // ignored

	want := []call{
		{RecordsTotal, 3, Labels{"job": "trials", "kind": "responses"}},
		{RecordsTotal, 5, Labels{"job": "trials", "kind": "inserted"}},
		{BatchesTotal, 2, Labels{"job": "trials"}},
	}
	if len(fb.counters) != len(want) {
		t.Fatalf("got %d counter calls, want %d", len(fb.counters), len(want))
	}
	for i, w := range want {
		g := fb.counters[i]
		if g.name != w.name || g.value != w.value || len(g.labels) != len(w.labels) {
			t.Fatalf("counter[%d] = %#v, want %#v", i, g, w)
		}
		for k, v := range w.labels {
			if g.labels[k] != v {
				t.Fatalf("counter[%d].labels[%s] = %q, want %q", i, k, g.labels[k], v)
			}
		}
	}
}

func TestObserveGroups(t *testing.T) {
	fb := install(t)

	ObserveGroups("trials", 0)
	ObserveGroups("trials", 3)

	if len(fb.histograms) != 2 {
		t.Fatalf("got %d observations, want 2", len(fb.histograms))
	}
	if h := fb.histograms[1]; h.name != GroupsPerRecord || h.value != 3 {
		t.Fatalf("hist[1] = %#v", h)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1", fb.flushCount)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
