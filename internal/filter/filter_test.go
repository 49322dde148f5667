package filter

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/infer"
)

func mustParse(t *testing.T, text string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ds
}

const scores = "name,score,joined,tier\n" +
	"foo one,5,2024-01-10,gold\n" +
	"foo two,15,2024-02-10,Silver\n" +
	"bar,15,2024-03-10,gold\n" +
	"foo three,25,2024-04-10,silver\n" +
	"Foo four,12,2024-05-10,gold\n" +
	"foo five,n/a,someday,\n"

func TestSet_RemovingLastPredicateRemovesColumn(t *testing.T) {
	var s Set
	s.Put("score", Min, "10")
	s.Put("score", Max, "20")
	if !s.Has("score") || s.Len() != 1 {
		t.Fatal("expected score to be filtered")
	}

	s.Put("score", Min, "")
	if _, ok := s.Get("score", Min); ok {
		t.Fatal("min should be gone")
	}
	if !s.Has("score") {
		t.Fatal("max still active, column must remain")
	}

	s.Put("score", Max, "")
	if s.Has("score") || s.Len() != 0 {
		t.Fatal("column entry must be removed with its last predicate")
	}

	// removing from an absent column is a no-op
	s.Put("missing", Contains, "")
	if s.Len() != 0 {
		t.Fatal("empty put created a column")
	}
}

func TestSet_CloneIsIndependent(t *testing.T) {
	var s Set
	s.Put("a", Contains, "x")
	c := s.Clone()
	s.Put("a", Contains, "y")
	s.Put("b", Value, "z")

	if v, _ := c.Get("a", Contains); v != "x" {
		t.Fatalf("clone changed: %q", v)
	}
	if c.Has("b") {
		t.Fatal("clone gained a column")
	}
}

func TestSet_String(t *testing.T) {
	var s Set
	s.Put("score", Max, "20")
	s.Put("name", Contains, "foo")
	s.Put("score", Min, "10")
	want := "name contains=foo; score min=10; score max=20"
	if got := s.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEvaluate_NoPredicatesReturnsAll(t *testing.T) {
	ds := mustParse(t, scores)
	got := Evaluate(ds, Set{})
	want := []int{0, 1, 2, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEvaluate_Composition(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("score", Min, "10")
	s.Put("score", Max, "20")
	s.Put("name", Contains, "FOO")

	got := Evaluate(ds, s)
	want := []int{1, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("all three: got %v, want %v", got, want)
	}

	s.Put("score", Max, "")
	got = Evaluate(ds, s)
	want = []int{1, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("without max: got %v, want %v", got, want)
	}
}

func TestEvaluate_NonNumericFailsComparison(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("score", Max, "1000")
	got := Evaluate(ds, s)
	for _, i := range got {
		if i == 5 {
			t.Fatal("n/a must not satisfy a numeric bound")
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %v", got)
	}

	s.Put("score", Max, "abc")
	if got := Evaluate(ds, s); len(got) != 0 {
		t.Fatalf("NaN bound must match nothing, got %v", got)
	}
}

func TestEvaluate_DateRangeInclusive(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("joined", Start, "2024-02-10")
	s.Put("joined", End, "03/10/2024")
	got := Evaluate(ds, s)
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEvaluate_ValueIsCaseInsensitiveEquality(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("tier", Value, "SILVER")
	got := Evaluate(ds, s)
	want := []int{1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	s.Put("tier", Value, "gol")
	if got := Evaluate(ds, s); len(got) != 0 {
		t.Fatalf("value must not match substrings, got %v", got)
	}
}

func TestEvaluate_UnknownKindPasses(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("name", Kind("regex"), "^zzz$")
	if got := Evaluate(ds, s); len(got) != ds.Len() {
		t.Fatalf("unknown kind filtered rows: %v", got)
	}
}

func TestEvaluate_UnknownColumnIsEmpty(t *testing.T) {
	ds := mustParse(t, scores)
	var s Set
	s.Put("nope", Contains, "x")
	if got := Evaluate(ds, s); len(got) != 0 {
		t.Fatalf("got %v, want nothing", got)
	}
}

func bigDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,label\n")
	for i := 0; i < n; i++ {
		b.WriteString(strconv.Itoa(i))
		if i%3 == 0 {
			b.WriteString(",keep\n")
		} else {
			b.WriteString(",drop\n")
		}
	}
	return mustParse(t, b.String())
}

func TestEvaluateParallel_MatchesSequential(t *testing.T) {
	ds := bigDataset(t, 20001)
	var s Set
	s.Put("label", Contains, "kee")
	s.Put("id", Min, "100")

	want := Evaluate(ds, s)
	for _, workers := range []int{1, 3, 8, 0} {
		got, err := EvaluateParallel(context.Background(), ds, s, workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("workers=%d: parallel view differs (%d vs %d rows)", workers, len(got), len(want))
		}
	}
}

func TestEvaluateParallel_Cancelled(t *testing.T) {
	ds := bigDataset(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := EvaluateParallel(ctx, ds, Set{}, 4); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestKindsFor(t *testing.T) {
	cases := []struct {
		typ                infer.ColumnType
		primary, secondary Kind
	}{
		{infer.Numeric, Min, Max},
		{infer.Date, Start, End},
		{infer.Boolean, Value, ""},
		{infer.Category, Value, ""},
		{infer.Text, Contains, ""},
	}
	for _, c := range cases {
		p, s := KindsFor(c.typ)
		if p != c.primary || s != c.secondary {
			t.Fatalf("%v: got (%q, %q)", c.typ, p, s)
		}
	}
}

func TestParseSpec(t *testing.T) {
	col, kind, value, err := ParseSpec("score:min=10")
	if err != nil || col != "score" || kind != Min || value != "10" {
		t.Fatalf("got (%q, %q, %q, %v)", col, kind, value, err)
	}

	_, _, value, err = ParseSpec("url:Contains=a=b")
	if err != nil || value != "a=b" {
		t.Fatalf("value with '=': got %q, %v", value, err)
	}

	for _, bad := range []string{"score", ":min=1", "score:min", "score:between=1"} {
		if _, _, _, err := ParseSpec(bad); err == nil {
			t.Fatalf("ParseSpec(%q) should fail", bad)
		}
	}
}
