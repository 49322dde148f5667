package app

import (
	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/infer"
)

// Row is one materialized row of the view.
type Row struct {
	Pos    int // position in the view
	Record int // index into the dataset
	Offset int // absolute offset in the scroll container
	Cells  []string
}

// Cell describes the selected cell.
type Cell struct {
	Row    int
	Col    int
	Ref    string // spreadsheet reference such as "C14"
	Column string
	Type   infer.ColumnType
	Value  string // untruncated
}

// Frame is everything needed to draw the viewer.
type Frame struct {
	Name      string
	Headers   []string
	Types     []infer.ColumnType
	Delimiter string

	Rows  []Row
	Start int
	End   int

	Offset      int
	Height      int
	TotalHeight int

	Shown   int
	Total   int
	Skipped int

	Selected *Cell
	Filters  string

	Pending   bool // filter edits not yet evaluated
	Loading   bool
	Filtering bool
	Exporting bool
}

// Empty reports whether no dataset is loaded.
func (f Frame) Empty() bool {
	return f.Headers == nil
}

// Frame projects the current state.
func (s *State) Frame() Frame {
	loading, filtering, exporting := s.Busy()
	f := Frame{
		Name:      s.name,
		Offset:    s.offset,
		Height:    s.height,
		Filters:   s.filters.String(),
		Pending:   s.Stale(),
		Loading:   loading,
		Filtering: filtering,
		Exporting: exporting,
	}
	if s.ds == nil {
		return f
	}

	w := s.opts.Window
	f.Headers = s.ds.Headers
	f.Types = s.types.Types()
	f.Delimiter = s.ds.DelimiterName()
	f.Shown = len(s.view)
	f.Total = s.ds.Len()
	f.Skipped = len(s.ds.Skipped)
	f.TotalHeight = w.TotalHeight(len(s.view))

	f.Start, f.End = w.Range(s.offset, s.height, len(s.view))
	f.Rows = make([]Row, 0, f.End-f.Start)
	for _, p := range w.Slice(s.offset, s.height, len(s.view)) {
		idx := s.view[p.Index]
		f.Rows = append(f.Rows, Row{
			Pos:    p.Index,
			Record: idx,
			Offset: p.Offset,
			Cells:  s.ds.Row(idx),
		})
	}

	if s.sel != nil {
		col := s.ds.Headers[s.sel.Col]
		f.Selected = &Cell{
			Row:    s.sel.Row,
			Col:    s.sel.Col,
			Ref:    dataset.CellRef(s.sel.Row, s.sel.Col),
			Column: col,
			Type:   f.Types[s.sel.Col],
			Value:  s.ds.Records[s.view[s.sel.Row]].Get(col),
		}
	}
	return f
}
