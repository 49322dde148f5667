// Package viewport computes which rows of a long list intersect a scrolled
// viewport, so only those rows are materialized.
//
// Units are abstract: the browser layout uses pixels (40 per row), the
// terminal grid uses lines (1 per row). The container is always sized to
// TotalHeight so scrollbars keep the right proportions.
package viewport

import (
	"github.com/mattn/go-runewidth"
)

// Window is the fixed geometry of a virtualized list.
type Window struct {
	RowHeight int // height of one row, > 0
	Overscan  int // extra rows rendered past the viewport edge
}

const (
	DefaultRowHeight = 40
	DefaultOverscan  = 5

	// DefaultVisibleRows is the visible row estimate used before the first
	// layout reports a real viewport height.
	DefaultVisibleRows = 50
)

// DefaultWindow returns the standard 40-unit rows with 5 rows of overscan.
func DefaultWindow() Window {
	return Window{RowHeight: DefaultRowHeight, Overscan: DefaultOverscan}
}

// Placed is one materialized row and its absolute offset in the container.
type Placed struct {
	Index  int
	Offset int
}

func (w Window) rowHeight() int {
	if w.RowHeight <= 0 {
		return 1
	}
	return w.RowHeight
}

// Range returns the half-open row interval [start, end) to materialize for
// a viewport of the given height scrolled to offset.
//
//	start = floor(offset / rowHeight)
//	end   = min(start + ceil(height / rowHeight) + overscan, total)
//
// Negative offsets clamp to zero and offsets past the end yield an empty
// range at total.
func (w Window) Range(offset, height, total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	rh := w.rowHeight()
	if offset < 0 {
		offset = 0
	}
	if height < 0 {
		height = 0
	}

	start = offset / rh
	if start > total {
		start = total
	}
	visible := (height + rh - 1) / rh
	overscan := w.Overscan
	if overscan < 0 {
		overscan = 0
	}

	end = start + visible + overscan
	if end > total {
		end = total
	}
	return start, end
}

// TotalHeight is the size of the container holding total rows.
func (w Window) TotalHeight(total int) int {
	if total < 0 {
		return 0
	}
	return total * w.rowHeight()
}

// Offset returns the absolute position of row i.
func (w Window) Offset(i int) int {
	return i * w.rowHeight()
}

// MaxOffset is the largest useful scroll offset for a viewport of height.
func (w Window) MaxOffset(height, total int) int {
	limit := w.TotalHeight(total) - height
	if limit < 0 {
		return 0
	}
	return limit
}

// Slice returns the rows to materialize with their absolute offsets.
func (w Window) Slice(offset, height, total int) []Placed {
	start, end := w.Range(offset, height, total)
	rows := make([]Placed, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, Placed{Index: i, Offset: w.Offset(i)})
	}
	return rows
}

// ScrollToReveal returns the scroll offset that keeps row visible, moving the
// viewport as little as possible from offset.
func (w Window) ScrollToReveal(row, offset, height int) int {
	rh := w.rowHeight()
	top := row * rh
	bottom := top + rh
	switch {
	case top < offset:
		return top
	case bottom > offset+height:
		off := bottom - height
		if off < 0 {
			off = 0
		}
		return off
	}
	return offset
}

// Truncate shortens s to at most width display cells, marking the cut with
// "...". Wide runes count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width > 3 {
		return runewidth.Truncate(s, width, "...")
	}
	return runewidth.Truncate(s, width, "")
}

// PadOrTruncate returns s fitted to exactly width display cells.
func PadOrTruncate(s string, width int) string {
	s = Truncate(s, width)
	return runewidth.FillRight(s, width)
}
