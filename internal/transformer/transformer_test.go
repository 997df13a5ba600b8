package transformer

import (
	"reflect"
	"strconv"
	"sync/atomic"
	"testing"

	"trialetl/internal/schema"
)

/*
identityTransformer is a no-op transformer used in tests/benchmarks.
It returns the input slice without allocating or modifying it.
*/
type identityTransformer struct{}

func (identityTransformer) Apply(in []schema.TrialRecord) []schema.TrialRecord { return in }

/*
setFieldTransformer returns copies of each record with key set to val.
*/
type setFieldTransformer struct {
	key string
	val string
}

func (t setFieldTransformer) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	out := make([]schema.TrialRecord, 0, len(in))
	for _, r := range in {
		c := r.Clone()
		c[t.key] = t.val
		out = append(out, c)
	}
	return out
}

/*
dropSentinelTransformer keeps only records whose key is not the sentinel.
*/
type dropSentinelTransformer struct {
	key string
}

func (t dropSentinelTransformer) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	var out []schema.TrialRecord
	for _, r := range in {
		if r.Get(t.key) != schema.Sentinel {
			out = append(out, r)
		}
	}
	return out
}

/*
counterTransformer increments *calls whenever Apply is invoked and records the
order it ran in.
*/
type counterTransformer struct {
	calls *int32
	order *[]int
	rank  int
}

func (t counterTransformer) Apply(in []schema.TrialRecord) []schema.TrialRecord {
	atomic.AddInt32(t.calls, 1)
	*t.order = append(*t.order, t.rank)
	return in
}

// --- Helpers ---

func makeRecs(n int) []schema.TrialRecord {
	recs := make([]schema.TrialRecord, n)
	for i := 0; i < n; i++ {
		r := schema.NewTrialRecord()
		r["NCT_Number"] = "NCT" + strconv.Itoa(i)
		recs[i] = r
	}
	return recs
}

// --- Unit tests ---

/*
TestChainApply_Composition_Order verifies that Chain.Apply passes the output of
each transformer as the input to the next.
*/
func TestChainApply_Composition_Order(t *testing.T) {
	t.Parallel()

	in := []schema.TrialRecord{{"NCT_Number": "NCT1"}}
	c := Chain{
		setFieldTransformer{key: "Trial_Info", val: "first"},
		setFieldTransformer{key: "Trial_Info", val: "second"},
		setFieldTransformer{key: "Conclusions", val: "third"},
	}
	out := c.Apply(in)

	want := schema.TrialRecord{"NCT_Number": "NCT1", "Trial_Info": "second", "Conclusions": "third"}
	if !reflect.DeepEqual(out[0], want) {
		t.Fatalf("composition mismatch:\n got: %#v\nwant: %#v", out[0], want)
	}
	if _, touched := in[0]["Trial_Info"]; touched {
		t.Fatalf("input record was modified: %#v", in[0])
	}
}

/*
TestChainApply_FilterThenSet verifies that filtering followed by a field
update yields the expected survivors.
*/
func TestChainApply_FilterThenSet(t *testing.T) {
	t.Parallel()

	in := makeRecs(3)
	in[1]["NCT_Number"] = schema.Sentinel

	c := Chain{
		dropSentinelTransformer{key: "NCT_Number"},
		setFieldTransformer{key: "Trial_Phase", val: "III"},
	}
	out := c.Apply(in)
	if len(out) != 2 {
		t.Fatalf("len(out)=%d; want 2", len(out))
	}
	for _, r := range out {
		if r["Trial_Phase"] != "III" {
			t.Fatalf("missing Trial_Phase on %#v", r)
		}
		if r["NCT_Number"] == schema.Sentinel {
			t.Fatalf("filtered record leaked into output: %#v", r)
		}
	}
}

/*
TestChainApply_NilAndEmptyChain verifies that applying a nil or empty Chain
returns the input unchanged and does not allocate.
*/
func TestChainApply_NilAndEmptyChain(t *testing.T) {
	in := makeRecs(3)

	var cNil Chain
	outNil := cNil.Apply(in)
	if len(outNil) != len(in) || &outNil[0] != &in[0] {
		t.Fatalf("nil chain should return same slice header")
	}

	outEmpty := Chain{}.Apply(in)
	if !reflect.DeepEqual(outEmpty, in) {
		t.Fatalf("empty chain changed output")
	}

	allocs := testing.AllocsPerRun(500, func() {
		_ = cNil.Apply(in)
	})
	if allocs > 0.05 {
		t.Fatalf("nil chain allocs/op=%.2f; want <= 0.05", allocs)
	}
}

/*
TestChainApply_TransformerCalledOnce ensures each transformer in the chain is
invoked exactly once per Chain.Apply call, left to right.
*/
func TestChainApply_TransformerCalledOnce(t *testing.T) {
	t.Parallel()

	var calls int32
	var order []int
	c := Chain{
		counterTransformer{calls: &calls, order: &order, rank: 1},
		counterTransformer{calls: &calls, order: &order, rank: 2},
		counterTransformer{calls: &calls, order: &order, rank: 3},
	}
	_ = c.Apply(makeRecs(2))
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls=%d; want 3", got)
	}
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Fatalf("order=%v; want [1 2 3]", order)
	}
}

func TestFunc_Adapter(t *testing.T) {
	t.Parallel()

	var seen int
	f := Func(func(in []schema.TrialRecord) []schema.TrialRecord {
		seen = len(in)
		return in[:1]
	})
	out := Chain{f}.Apply(makeRecs(4))
	if seen != 4 || len(out) != 1 {
		t.Fatalf("seen=%d len(out)=%d; want 4 and 1", seen, len(out))
	}
}

/*
TestChainApply_NilInput verifies the defined behavior for nil input slices:
Apply should return nil (not an empty slice).
*/
func TestChainApply_NilInput(t *testing.T) {
	t.Parallel()

	var in []schema.TrialRecord
	out := Chain{identityTransformer{}}.Apply(in)
	if out != nil {
		t.Fatalf("Apply(nil) => %#v; want nil", out)
	}
}

/*
BenchmarkChain_Identity_N measures overhead of Chain.Apply with N no-op
transformers over a medium batch of records.
*/
func BenchmarkChain_Identity_1(b *testing.B)  { benchChainIdentity(b, 1) }
func BenchmarkChain_Identity_10(b *testing.B) { benchChainIdentity(b, 10) }

func benchChainIdentity(b *testing.B, n int) {
	in := makeRecs(5000)
	c := make(Chain, n)
	for i := 0; i < n; i++ {
		c[i] = identityTransformer{}
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.Apply(in)
	}
}

/*
BenchmarkChain_SetField models a copy-on-write pass across all records.
*/
func BenchmarkChain_SetField(b *testing.B) {
	in := makeRecs(5000)
	c := Chain{
		setFieldTransformer{"Trial_Phase", "II"},
		dropSentinelTransformer{"NCT_Number"},
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.Apply(in)
	}
}
