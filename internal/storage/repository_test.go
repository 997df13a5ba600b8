package storage

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	closed bool
	execs  []string
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

func fakeFactory(repo Repository, err error) Factory {
	return func(context.Context, Config) (Repository, error) { return repo, err }
}

// TestFactory covers registration, lookup, override and error propagation.
// Each case registers under its own kind, so cases can run in parallel.
func TestFactory(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	first, second := &fakeRepo{}, &fakeRepo{}

	tests := []struct {
		name     string
		kind     string
		register []Factory
		wantRepo Repository
		wantErr  error
	}{
		{name: "registered", kind: "t-registered", register: []Factory{fakeFactory(first, nil)}, wantRepo: first},
		{name: "override keeps last", kind: "t-override", register: []Factory{fakeFactory(first, nil), fakeFactory(second, nil)}, wantRepo: second},
		{name: "factory error", kind: "t-error", register: []Factory{fakeFactory(nil, boom)}, wantErr: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, f := range tt.register {
				Register(tt.kind, f)
			}
			repo, err := New(context.Background(), Config{Kind: tt.kind})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if repo != tt.wantRepo {
				t.Fatalf("repo = %p, want %p", repo, tt.wantRepo)
			}
			if !slices.Contains(ListKinds(), tt.kind) {
				t.Fatalf("ListKinds() missing %q", tt.kind)
			}
		})
	}
}

func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil || err.Error() != "unsupported storage.kind=does-not-exist" {
		t.Fatalf("err = %v", err)
	}
}

func TestListKinds_SortedCopy(t *testing.T) {
	t.Parallel()

	Register("t-snap", fakeFactory(&fakeRepo{}, nil))

	a := ListKinds()
	if !slices.IsSorted(a) {
		t.Fatalf("ListKinds() not sorted: %v", a)
	}
	a[0] = "mutated"
	if ListKinds()[0] == "mutated" {
		t.Fatalf("ListKinds returned the registry's slice")
	}
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	var gotTable string
	var gotCols []string
	RegisterDDL("t-ddl", func(ctx context.Context, repo Repository, table string, columns []string) error {
		gotTable, gotCols = table, columns
		return repo.Exec(ctx, "CREATE "+table)
	})

	repo := &fakeRepo{}
	if err := EnsureTable(context.Background(), "t-ddl", repo, "trials", []string{"NCT_Number"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if gotTable != "trials" || !reflect.DeepEqual(gotCols, []string{"NCT_Number"}) {
		t.Fatalf("bootstrapper got table=%q cols=%v", gotTable, gotCols)
	}
	if !reflect.DeepEqual(repo.execs, []string{"CREATE trials"}) {
		t.Fatalf("execs = %v", repo.execs)
	}
	if err := EnsureTable(context.Background(), "t-ddl", repo, "trials", nil); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}

// TestEnsureTable_UnregisteredIsNoop covers file sinks, which have no DDL.
func TestEnsureTable_UnregisteredIsNoop(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	if err := EnsureTable(context.Background(), "no-ddl", repo, "t", []string{"a"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(repo.execs) != 0 {
		t.Fatalf("unexpected execs %v", repo.execs)
	}
}
