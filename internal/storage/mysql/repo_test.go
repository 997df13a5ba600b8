package mysql

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"trialetl/internal/storage"
)

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	got := buildInsertSQL("trials.results", []string{"NCT_Number", "Group1_PFS"}, 2)
	want := "INSERT INTO `trials`.`results` (`NCT_Number`, `Group1_PFS`) VALUES (?, ?), (?, ?)"
	if got != want {
		t.Fatalf("buildInsertSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "user:pass@tcp(localhost:3306"})
	if err == nil || !strings.HasPrefix(err.Error(), "mysql dsn:") {
		t.Fatalf("err = %v, want mysql dsn error", err)
	}
}

func TestCopyFrom_EmptyRows(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	if n, err := r.CopyFrom(context.Background(), []string{"a"}, nil); n != 0 || err != nil {
		t.Fatalf("CopyFrom(nil) = %d, %v", n, err)
	}
}

func TestAdapterRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	cfg := storage.Config{Kind: "mysql", DSN: "u:p@tcp(db:3306)/trials", Table: "results", Columns: []string{"NCT_Number"}}
	repo, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if want := (Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns}); !reflect.DeepEqual(gotCfg, want) {
		t.Fatalf("cfg = %#v, want %#v", gotCfg, want)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call closeFn")
	}
}

func TestAdapter_PropagatesOpenError(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	boom := errors.New("access denied")
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return nil, nil, boom
	}
	if _, err := storage.New(context.Background(), storage.Config{Kind: "mysql"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

type execRecorder struct{ stmts []string }

func (e *execRecorder) CopyFrom(context.Context, []string, [][]any) (int64, error) { return 0, nil }
func (e *execRecorder) Exec(_ context.Context, sql string) error {
	e.stmts = append(e.stmts, sql)
	return nil
}
func (e *execRecorder) Close() {}

func TestEnsureTable_Backticks(t *testing.T) {
	t.Parallel()

	rec := &execRecorder{}
	if err := storage.EnsureTable(context.Background(), "mysql", rec, "results", []string{"NCT_Number"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if !strings.Contains(rec.stmts[0], "CREATE TABLE IF NOT EXISTS `results`") || !strings.Contains(rec.stmts[0], "`NCT_Number` TEXT") {
		t.Fatalf("DDL = %q", rec.stmts[0])
	}
}
