package datadog

import (
	"reflect"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"

	"trialetl/internal/metrics"
)

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   metrics.Labels
		want []string
	}{
		{"nil", nil, nil},
		{"empty", metrics.Labels{}, nil},
		{"sorted", metrics.Labels{"step": "parse", "job": "trials", "status": "success"},
			[]string{"job:trials", "status:success", "step:parse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := labelsToTags(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labelsToTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend() error = nil, want non-nil")
	}
}

func TestBackend_NilClientIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "parse"})
	b.ObserveHistogram(metrics.StepDuration, 0.1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}

func TestBackend_SendsToClient(t *testing.T) {
	t.Parallel()

	b := &Backend{client: &statsd.NoOpClient{}}
	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": "inserted"})
	b.ObserveHistogram(metrics.GroupsPerRecord, 2, metrics.Labels{"job": "trials"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}
