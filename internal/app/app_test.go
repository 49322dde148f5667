package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/task"
	"github.com/imgajeed76/csvview/internal/viewport"
)

const people = "name,age,city\n" +
	"Ana,31,Recife\n" +
	"Bruno,27,Natal\n" +
	"Carla,45,Recife\n" +
	"Diego,19,Olinda\n"

func newState(t *testing.T, window viewport.Window) *State {
	t.Helper()
	return New(Options{Window: window, Logger: slog.New(slog.DiscardHandler)})
}

func load(t *testing.T, s *State, name, text string) error {
	t.Helper()
	return s.Load(context.Background(), task.Inline{}, dataset.NewParser(dataset.Options{}), name, text)
}

func loaded(t *testing.T) *State {
	t.Helper()
	s := newState(t, viewport.Window{RowHeight: 1, Overscan: 2})
	s.Resize(10)
	if err := load(t, s, "people.csv", people); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func evaluate(t *testing.T, s *State) {
	t.Helper()
	ctx, job := s.BeginEvaluate(context.Background())
	view, err := job.Run(ctx, task.Inline{})
	if err := s.FinishEvaluate(job, view, err); err != nil {
		t.Fatalf("FinishEvaluate: %v", err)
	}
}

func TestLoad_ShowsEverything(t *testing.T) {
	s := loaded(t)
	f := s.Frame()
	if f.Shown != 4 || f.Total != 4 || len(f.Rows) != 4 {
		t.Fatalf("frame counts = %d/%d rows=%d", f.Shown, f.Total, len(f.Rows))
	}
	if f.Name != "people.csv" || f.Delimiter != "comma" {
		t.Fatalf("frame = %+v", f)
	}
	if f.Rows[2].Cells[0] != "Carla" {
		t.Fatalf("row 2 = %q", f.Rows[2].Cells)
	}
}

func TestLoad_FailureKeepsPriorDataset(t *testing.T) {
	s := loaded(t)
	before := s.Dataset()
	s.SetPredicate("city", filter.Value, "recife")
	s.Evaluate()

	for _, bad := range []string{"", "only,headers\n", "a,b,c,d,e,f\n1\n"} {
		if err := load(t, s, "bad.csv", bad); err == nil {
			t.Fatalf("load(%q) should fail", bad)
		}
	}

	if s.Dataset() != before || s.Name() != "people.csv" {
		t.Fatal("failed load replaced the dataset")
	}
	if len(s.View()) != 2 || s.Filters().Len() != 1 {
		t.Fatalf("failed load changed the view: %v", s.View())
	}
}

func TestLoad_NewFileResetsFilters(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("city", filter.Value, "recife")
	s.Evaluate()
	s.Select(1, 1)

	if err := load(t, s, "other.csv", "x\n1\n2\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Filters().Len() != 0 || len(s.View()) != 2 {
		t.Fatal("new dataset should start unfiltered")
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("selection should be cleared")
	}
	if s.Inferencer().Dataset() != s.Dataset() {
		t.Fatal("inferencer belongs to the old dataset")
	}
}

func TestLoad_StaleResultDiscarded(t *testing.T) {
	s := loaded(t)
	before := s.Dataset()

	ctx1, first := s.BeginLoad(context.Background(), "first.csv")
	_, second := s.BeginLoad(context.Background(), "second.csv")
	if ctx1.Err() == nil {
		t.Fatal("first load should be cancelled")
	}

	ds1, _ := dataset.Parse("a\n1\n")
	if err := s.FinishLoad(first, ds1, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("got %v, want ErrSuperseded", err)
	}
	if s.Dataset() != before {
		t.Fatal("stale load was applied")
	}

	ds2, _ := dataset.Parse("b\n2\n")
	if err := s.FinishLoad(second, ds2, nil); err != nil {
		t.Fatalf("FinishLoad: %v", err)
	}
	if s.Dataset() != ds2 || s.Name() != "second.csv" {
		t.Fatal("current load was not applied")
	}
}

func TestLoad_CancelsPendingFilterAndExport(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("age", filter.Min, "30")
	ectx, ejob := s.BeginEvaluate(context.Background())
	xctx, xjob := s.BeginExport(context.Background())

	_, ljob := s.BeginLoad(context.Background(), "next.csv")
	if ectx.Err() == nil || xctx.Err() == nil {
		t.Fatal("new load must cancel filter and export work")
	}

	if err := s.FinishEvaluate(ejob, []int{0}, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("filter: got %v, want ErrSuperseded", err)
	}
	if err := s.FinishExport(xjob, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("export: got %v, want ErrSuperseded", err)
	}
	_ = s.FinishLoad(ljob, nil, dataset.ErrEmptyFile)
}

func TestDebounce_OnlyLastEditIsDue(t *testing.T) {
	s := loaded(t)
	seq1 := s.SetPredicate("name", filter.Contains, "a")
	seq2 := s.SetPredicate("name", filter.Contains, "an")

	if s.DebounceDue(seq1) {
		t.Fatal("superseded edit must not trigger evaluation")
	}
	if !s.DebounceDue(seq2) {
		t.Fatal("last edit should be due")
	}
	if len(s.View()) != 4 || !s.Frame().Pending {
		t.Fatal("view must not change before evaluation")
	}

	evaluate(t, s)
	if got := s.View(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("view = %v, want [0]", got)
	}
	if s.DebounceDue(seq2) || s.Stale() {
		t.Fatal("evaluated edit is no longer due")
	}
	if s.Debounce() != DefaultDebounce {
		t.Fatalf("debounce = %v", s.Debounce())
	}
}

func TestEvaluate_StaleResultDiscarded(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("city", filter.Value, "natal")
	_, old := s.BeginEvaluate(context.Background())
	s.SetPredicate("city", filter.Value, "recife")
	ctx, cur := s.BeginEvaluate(context.Background())

	if err := s.FinishEvaluate(old, []int{1}, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("got %v, want ErrSuperseded", err)
	}
	view, err := cur.Run(ctx, task.Background{Logger: slog.New(slog.DiscardHandler)})
	if err := s.FinishEvaluate(cur, view, err); err != nil {
		t.Fatalf("FinishEvaluate: %v", err)
	}
	if got := s.View(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("view = %v, want [0 2]", got)
	}
}

func TestEvaluate_LargeDatasetUsesParallelPath(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 50; i++ {
		b.WriteString(strconv.Itoa(i) + "\n")
	}
	s := New(Options{BackgroundThreshold: 10, FilterWorkers: 4, Logger: slog.New(slog.DiscardHandler)})
	if err := load(t, s, "n.csv", b.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.SetPredicate("n", filter.Min, "40")
	evaluate(t, s)
	if got := s.View(); len(got) != 10 || got[0] != 40 {
		t.Fatalf("view = %v", got)
	}
}

func TestClearFilters_Idempotent(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("age", filter.Min, "30")
	s.SetPredicate("city", filter.Contains, "rec")
	s.Evaluate()
	if len(s.View()) != 2 {
		t.Fatalf("view = %v", s.View())
	}

	s.ClearFilters()
	once := append([]int(nil), s.View()...)
	s.ClearFilters()
	twice := s.View()

	if len(once) != 4 || len(twice) != 4 {
		t.Fatalf("clear should show every row: %v / %v", once, twice)
	}
	for i := range once {
		if once[i] != i || twice[i] != i {
			t.Fatalf("views differ: %v / %v", once, twice)
		}
	}
	if s.Filters().Len() != 0 || s.Frame().Filters != "" {
		t.Fatal("filters should be empty")
	}
}

func TestClearColumn(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("age", filter.Min, "30")
	s.SetPredicate("city", filter.Value, "recife")
	seq := s.ClearColumn("age")
	if !s.DebounceDue(seq) {
		t.Fatal("clearing a column is a filter edit")
	}
	evaluate(t, s)
	if s.Filters().Has("age") || len(s.View()) != 2 {
		t.Fatalf("view = %v", s.View())
	}
}

func TestSelection(t *testing.T) {
	s := loaded(t)
	if !s.Select(2, 2) {
		t.Fatal("select failed")
	}
	f := s.Frame()
	if f.Selected == nil || f.Selected.Ref != "C4" || f.Selected.Value != "Recife" || f.Selected.Column != "city" {
		t.Fatalf("selected = %+v", f.Selected)
	}

	s.Move(5, 5)
	if sel, _ := s.Selection(); sel.Row != 3 || sel.Col != 2 {
		t.Fatalf("move should clamp, got %+v", sel)
	}

	if s.Select(10, 0) {
		t.Fatal("out of range select succeeded")
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("invalid select should clear the selection")
	}

	s.Move(0, 0)
	if sel, ok := s.Selection(); !ok || sel.Row != 0 || sel.Col != 0 {
		t.Fatalf("move without selection should pick the first cell, got %+v", sel)
	}
	s.Deselect()
	if s.Frame().Selected != nil {
		t.Fatal("deselect failed")
	}
}

func TestSelection_ClearedWhenViewShrinks(t *testing.T) {
	s := loaded(t)
	s.Select(3, 0)
	s.SetPredicate("city", filter.Value, "natal")
	s.Evaluate()
	if _, ok := s.Selection(); ok {
		t.Fatal("selection past the end of the view should be cleared")
	}
}

func TestFrame_Virtualized(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,label\n")
	for i := 0; i < 1000; i++ {
		b.WriteString(strconv.Itoa(i) + ",row\n")
	}
	s := newState(t, viewport.DefaultWindow())
	if err := load(t, s, "big.csv", b.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Resize(400)
	s.Scroll(800)

	f := s.Frame()
	if f.Start != 20 || f.End != 35 || len(f.Rows) != 15 {
		t.Fatalf("window = [%d, %d) with %d rows", f.Start, f.End, len(f.Rows))
	}
	if f.Rows[0].Offset != 800 || f.Rows[0].Cells[0] != "20" {
		t.Fatalf("first row = %+v", f.Rows[0])
	}
	if f.TotalHeight != 40000 {
		t.Fatalf("total height = %d", f.TotalHeight)
	}

	s.Scroll(1 << 30)
	if got := s.Frame().Offset; got != 40000-400 {
		t.Fatalf("scroll should clamp, got %d", got)
	}
}

func TestExport_MatchesView(t *testing.T) {
	s := loaded(t)
	s.SetPredicate("city", filter.Value, "recife")
	s.Evaluate()

	ctx, job := s.BeginExport(context.Background())
	data, err := job.Run(ctx, task.Inline{})
	if err := s.FinishExport(job, err); err != nil {
		t.Fatalf("FinishExport: %v", err)
	}
	if !bytes.Equal(data, export.Bytes(s.Dataset(), s.View())) {
		t.Fatalf("export = %q", data)
	}
}

func TestFrame_Empty(t *testing.T) {
	s := newState(t, viewport.DefaultWindow())
	f := s.Frame()
	if !f.Empty() || f.Rows != nil {
		t.Fatal("no dataset should give an empty frame")
	}
	s.ClearFilters()
	s.Evaluate()
	if s.Move(1, 0) {
		t.Fatal("move with no dataset succeeded")
	}
}
