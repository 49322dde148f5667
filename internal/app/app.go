// Package app holds the viewer's application state and the operations that
// change it. The terminal UI feeds input events in as method calls and draws
// whatever Frame returns.
//
// State is owned by one goroutine. Work that may run elsewhere (parse,
// filter, export) is described by a job value that carries everything it
// needs; its result is handed back through the matching Finish method, which
// rejects it with ErrSuperseded when newer work of the same kind has started.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/infer"
	"github.com/imgajeed76/csvview/internal/task"
	"github.com/imgajeed76/csvview/internal/viewport"
)

// ErrSuperseded is returned for a result whose operation was replaced by a
// newer one of the same kind, or whose dataset is no longer loaded.
var ErrSuperseded = errors.New("result superseded by newer work")

// DefaultDebounce is the quiet period after the last filter change before
// the view is recomputed.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a State. Zero fields take their package defaults.
type Options struct {
	Window              viewport.Window
	SampleSize          int
	Debounce            time.Duration
	BackgroundThreshold int // records above which filter and export split work
	FilterWorkers       int
	ExportChunkRows     int
	ExportWorkers       int
	Logger              *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Window.RowHeight <= 0 {
		o.Window = viewport.DefaultWindow()
	}
	if o.SampleSize <= 0 {
		o.SampleSize = infer.DefaultSampleSize
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.BackgroundThreshold <= 0 {
		o.BackgroundThreshold = filter.DefaultBackgroundThreshold
	}
	if o.ExportChunkRows <= 0 {
		o.ExportChunkRows = export.DefaultChunkRows
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Selection is a cell in the current view: Row is a position in the view,
// not a record index.
type Selection struct {
	Row int
	Col int
}

// State is the coordinator. It is not safe for concurrent use.
type State struct {
	opts Options

	name  string
	ds    *dataset.Dataset
	types *infer.Inferencer

	filters filter.Set
	view    []int

	// filterSeq counts filter edits; appliedSeq is the edit the current view
	// reflects.
	filterSeq  uint64
	appliedSeq uint64

	offset int
	height int
	sel    *Selection

	load, eval, exp task.Slot
}

// New returns an empty State with no dataset loaded.
func New(opts Options) *State {
	opts = opts.withDefaults()
	return &State{
		opts:   opts,
		height: viewport.DefaultVisibleRows * opts.Window.RowHeight,
	}
}

func (s *State) Options() Options { return s.opts }

// Name is the display name of the loaded file.
func (s *State) Name() string { return s.name }

func (s *State) Dataset() *dataset.Dataset { return s.ds }

func (s *State) Inferencer() *infer.Inferencer { return s.types }

// Filters returns a copy of the active predicates.
func (s *State) Filters() filter.Set { return s.filters.Clone() }

// View returns the record indices currently shown, in dataset order.
func (s *State) View() []int { return s.view }

// Offset is the current scroll offset in Window units.
func (s *State) Offset() int { return s.offset }

// Selection returns the selected cell, if any.
func (s *State) Selection() (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}

// Busy reports which kinds of work are in flight.
func (s *State) Busy() (loading, filtering, exporting bool) {
	return s.load.Busy(), s.eval.Busy(), s.exp.Busy()
}

// LoadJob identifies one file load.
type LoadJob struct {
	Ticket task.Ticket
	Name   string
}

// BeginLoad starts loading a new file. Pending filter and export work of the
// current file is cancelled; the current dataset stays until FinishLoad
// succeeds.
func (s *State) BeginLoad(parent context.Context, name string) (context.Context, LoadJob) {
	s.eval.Cancel()
	s.exp.Cancel()
	ctx, t := s.load.Begin(parent)
	return ctx, LoadJob{Ticket: t, Name: name}
}

// FinishLoad applies the outcome of a load. On error the previous dataset,
// filters and view are left untouched and err is returned.
func (s *State) FinishLoad(job LoadJob, ds *dataset.Dataset, err error) error {
	if !s.load.Finish(job.Ticket) {
		return ErrSuperseded
	}
	if err != nil {
		s.opts.Logger.Debug("load failed", "file", job.Name, "error", err)
		return err
	}

	s.name = job.Name
	s.ds = ds
	s.types = infer.New(ds, s.opts.SampleSize)
	s.filters.Clear()
	s.filterSeq++
	s.appliedSeq = s.filterSeq
	s.view = filter.Evaluate(ds, filter.Set{})
	s.offset = 0
	s.sel = nil

	s.opts.Logger.Debug("dataset loaded",
		"file", job.Name,
		"rows", ds.Len(),
		"columns", len(ds.Headers),
		"skipped", len(ds.Skipped),
	)
	return nil
}

// Load parses text on r and applies the result.
func (s *State) Load(ctx context.Context, r task.Runner, p *dataset.Parser, name, text string) error {
	ctx, job := s.BeginLoad(ctx, name)
	ds, err := task.Do(ctx, r, "parse", func(ctx context.Context) (*dataset.Dataset, error) {
		return p.Parse(ctx, text)
	})
	return s.FinishLoad(job, ds, err)
}

// SetPredicate edits one filter predicate; an empty value removes it. The
// view is not recomputed: the returned sequence number is passed to
// DebounceDue once the debounce period has elapsed.
func (s *State) SetPredicate(column string, kind filter.Kind, value string) uint64 {
	s.filters.Put(column, kind, value)
	s.filterSeq++
	return s.filterSeq
}

// ClearColumn removes every predicate on column. Like SetPredicate it is
// debounced.
func (s *State) ClearColumn(column string) uint64 {
	s.filters.ClearColumn(column)
	s.filterSeq++
	return s.filterSeq
}

// Debounce is the configured quiet period.
func (s *State) Debounce() time.Duration { return s.opts.Debounce }

// DebounceDue reports whether seq is still the latest filter edit, meaning
// the burst it belongs to is over and evaluation should start.
func (s *State) DebounceDue(seq uint64) bool {
	return seq == s.filterSeq && seq != s.appliedSeq
}

// Stale reports whether filter edits are waiting to be evaluated.
func (s *State) Stale() bool {
	return s.filterSeq != s.appliedSeq
}

// EvalJob is one filter evaluation, detached from State.
type EvalJob struct {
	Ticket    task.Ticket
	Seq       uint64
	Dataset   *dataset.Dataset
	Filters   filter.Set
	Workers   int
	Threshold int
}

// BeginEvaluate starts evaluating the current filters, superseding any
// evaluation in flight.
func (s *State) BeginEvaluate(parent context.Context) (context.Context, EvalJob) {
	ctx, t := s.eval.Begin(parent)
	return ctx, EvalJob{
		Ticket:    t,
		Seq:       s.filterSeq,
		Dataset:   s.ds,
		Filters:   s.filters.Clone(),
		Workers:   s.opts.FilterWorkers,
		Threshold: s.opts.BackgroundThreshold,
	}
}

// Run computes the job's view on r. Large datasets are scanned in parallel.
func (j EvalJob) Run(ctx context.Context, r task.Runner) ([]int, error) {
	return task.Do(ctx, r, "filter", func(ctx context.Context) ([]int, error) {
		if j.Dataset == nil {
			return nil, nil
		}
		if j.Dataset.Len() > j.Threshold {
			return filter.EvaluateParallel(ctx, j.Dataset, j.Filters, j.Workers)
		}
		return filter.Evaluate(j.Dataset, j.Filters), nil
	})
}

// FinishEvaluate applies an evaluation result.
func (s *State) FinishEvaluate(job EvalJob, view []int, err error) error {
	if !s.eval.Finish(job.Ticket) || job.Dataset != s.ds {
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	s.appliedSeq = job.Seq
	s.setView(view)
	return nil
}

// Evaluate recomputes the view synchronously, cancelling any evaluation in
// flight.
func (s *State) Evaluate() {
	s.eval.Cancel()
	s.appliedSeq = s.filterSeq
	if s.ds == nil {
		return
	}
	s.setView(filter.Evaluate(s.ds, s.filters))
}

// ClearFilters removes every predicate and immediately shows the whole
// dataset. Calling it again has no further effect.
func (s *State) ClearFilters() {
	s.eval.Cancel()
	s.filters.Clear()
	s.filterSeq++
	s.appliedSeq = s.filterSeq
	if s.ds == nil {
		return
	}
	s.setView(filter.Evaluate(s.ds, filter.Set{}))
}

func (s *State) setView(view []int) {
	s.view = view
	s.offset = clamp(s.offset, 0, s.opts.Window.MaxOffset(s.height, len(view)))
	if s.sel != nil && !s.valid(s.sel.Row, s.sel.Col) {
		s.sel = nil
	}
}

// ExportJob is one export of the current view, detached from State.
type ExportJob struct {
	Ticket    task.Ticket
	Dataset   *dataset.Dataset
	View      []int
	ChunkRows int
	Workers   int
	Threshold int
}

// BeginExport snapshots the current view for export.
func (s *State) BeginExport(parent context.Context) (context.Context, ExportJob) {
	ctx, t := s.exp.Begin(parent)
	view := make([]int, len(s.view))
	copy(view, s.view)
	return ctx, ExportJob{
		Ticket:    t,
		Dataset:   s.ds,
		View:      view,
		ChunkRows: s.opts.ExportChunkRows,
		Workers:   s.opts.ExportWorkers,
		Threshold: s.opts.BackgroundThreshold,
	}
}

// Run renders the job's CSV bytes on r.
func (j ExportJob) Run(ctx context.Context, r task.Runner) ([]byte, error) {
	return task.Do(ctx, r, "export", func(ctx context.Context) ([]byte, error) {
		if j.Dataset == nil {
			return nil, errors.New("no dataset loaded")
		}
		if len(j.View) > j.Threshold {
			return export.Chunked(ctx, j.Dataset, j.View, j.ChunkRows, j.Workers)
		}
		return export.Bytes(j.Dataset, j.View), nil
	})
}

// FinishExport releases the export slot. A superseded export returns
// ErrSuperseded and its output must not be written.
func (s *State) FinishExport(job ExportJob, err error) error {
	if !s.exp.Finish(job.Ticket) {
		return ErrSuperseded
	}
	return err
}

// Scroll moves the viewport to offset, clamped to the scrollable range.
func (s *State) Scroll(offset int) {
	s.offset = clamp(offset, 0, s.opts.Window.MaxOffset(s.height, len(s.view)))
}

// ScrollBy moves the viewport by delta units.
func (s *State) ScrollBy(delta int) {
	s.Scroll(s.offset + delta)
}

// Resize sets the viewport height.
func (s *State) Resize(height int) {
	if height < 0 {
		height = 0
	}
	s.height = height
	s.Scroll(s.offset)
}

// Select selects a cell and scrolls it into view. An out-of-range cell
// clears the selection instead.
func (s *State) Select(row, col int) bool {
	if !s.valid(row, col) {
		s.sel = nil
		return false
	}
	s.sel = &Selection{Row: row, Col: col}
	s.Scroll(s.opts.Window.ScrollToReveal(row, s.offset, s.height))
	return true
}

// Move shifts the selection, clamped to the view. With nothing selected the
// first visible row's first cell is selected.
func (s *State) Move(dRow, dCol int) bool {
	if len(s.view) == 0 || s.ds == nil || len(s.ds.Headers) == 0 {
		return false
	}
	if s.sel == nil {
		start, _ := s.opts.Window.Range(s.offset, s.height, len(s.view))
		return s.Select(clamp(start, 0, len(s.view)-1), 0)
	}
	row := clamp(s.sel.Row+dRow, 0, len(s.view)-1)
	col := clamp(s.sel.Col+dCol, 0, len(s.ds.Headers)-1)
	return s.Select(row, col)
}

// Deselect clears the selection.
func (s *State) Deselect() {
	s.sel = nil
}

func (s *State) valid(row, col int) bool {
	return s.ds != nil && row >= 0 && row < len(s.view) && col >= 0 && col < len(s.ds.Headers)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
