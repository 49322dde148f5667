package grid

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// widthSample caps the records measured for a column's full width.
const widthSample = 10000

// syncLayout resets the column layout when the loaded dataset changed.
func (m *model) syncLayout() {
	ds := m.st.Dataset()
	if ds == m.ds {
		return
	}
	m.ds = ds
	m.colCursor = 0
	m.scrollX = 0
	m.fullColWidths = nil
	m.colStates = nil
	if ds == nil {
		return
	}

	// Calculate full column widths based on content; the header and the
	// type label always fit
	types := m.st.Inferencer().Types()
	m.fullColWidths = make([]int, len(ds.Headers))
	for i, name := range ds.Headers {
		m.fullColWidths[i] = max(runewidth.StringWidth(name), runewidth.StringWidth(types[i].Label()))
	}
	n := ds.Len()
	if n > widthSample {
		n = widthSample
	}
	for _, rec := range ds.Records[:n] {
		for i, name := range ds.Headers {
			if w := runewidth.StringWidth(rec[name]); w > m.fullColWidths[i] {
				m.fullColWidths[i] = w
			}
		}
	}
	m.colStates = make([]colState, len(ds.Headers))
}

// ═══════════════════════════════════════════════════════════════════════════
// Row / Column Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m model) rowHeight() int {
	if rh := m.st.Options().Window.RowHeight; rh > 0 {
		return rh
	}
	return 1
}

func (m model) offset() int {
	return m.st.Offset()
}

func (m model) visibleRowCount() int {
	count := m.height - chromeLines
	if count < 1 {
		count = 1
	}
	return count
}

func (m model) halfPage() int {
	half := m.visibleRowCount() / 2
	if half < 1 {
		half = 1
	}
	return half
}

func (m model) halfWidth() int {
	half := m.width / 2
	if half < 1 {
		half = 1
	}
	return half
}

// getMaxOffset is the largest vertical offset for the current view.
func (m model) getMaxOffset() int {
	return m.st.Options().Window.MaxOffset(m.visibleRowCount()*m.rowHeight(), len(m.st.View()))
}

// gutterWidth is the width of the spreadsheet row-number column, including
// its trailing space.
func (m model) gutterWidth() int {
	if m.ds == nil {
		return 0
	}
	return len(strconv.Itoa(m.ds.Len()+1)) + 1
}

func (m model) viewportWidth() int {
	w := m.width - 2 - m.gutterWidth()
	if w < 1 {
		w = 1
	}
	return w
}

func (m model) getColDisplayWidth(colIdx int) int {
	if colIdx >= len(m.colStates) {
		return m.opts.CellWidth
	}

	switch m.colStates[colIdx] {
	case colStateExpanded:
		w := m.fullColWidths[colIdx]
		if w < minColWidth {
			w = minColWidth
		}
		return w
	case colStateHidden:
		return hiddenColWidth
	default:
		w := m.fullColWidths[colIdx]
		if w > m.opts.CellWidth {
			w = m.opts.CellWidth
		}
		if w < minColWidth {
			w = minColWidth
		}
		return w
	}
}

func (m model) getColStartX(colIdx int) int {
	x := 0
	for i := 0; i < colIdx && i < len(m.colStates); i++ {
		x += m.getColDisplayWidth(i) + 2 // +2 for column separator spacing
	}
	return x
}

func (m model) getColEndX(colIdx int) int {
	return m.getColStartX(colIdx) + m.getColDisplayWidth(colIdx)
}

func (m model) getTotalWidth() int {
	total := 0
	for i := range m.colStates {
		total += m.getColDisplayWidth(i) + 2
	}
	return total
}

func (m model) getMaxScrollX() int {
	maxX := m.getTotalWidth() - m.viewportWidth()
	if maxX < 0 {
		return 0
	}
	return maxX
}

func (m *model) clampScrollX() {
	maxX := m.getMaxScrollX()
	if m.scrollX < 0 {
		m.scrollX = 0
	} else if m.scrollX > maxX {
		m.scrollX = maxX
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scroll Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m *model) ensureColVisible() {
	colStartX := m.getColStartX(m.colCursor)
	colEndX := m.getColEndX(m.colCursor)
	colWidth := colEndX - colStartX
	viewportWidth := m.viewportWidth()

	if colStartX < m.scrollX {
		m.scrollX = colStartX
	} else if colEndX > m.scrollX+viewportWidth {
		if colWidth <= viewportWidth {
			m.scrollX = colEndX - viewportWidth
		} else {
			m.scrollX = colStartX
		}
	}
	m.clampScrollX()
}

func (m *model) ensureColVisibleFromLeft() {
	m.scrollX = m.getColStartX(m.colCursor)
	m.clampScrollX()
}

func (m *model) ensureColVisibleFromRight() {
	colStartX := m.getColStartX(m.colCursor)
	colEndX := m.getColEndX(m.colCursor)
	viewportWidth := m.viewportWidth()

	m.scrollX = colEndX - viewportWidth
	if colEndX-colStartX <= viewportWidth && m.scrollX < colStartX {
		m.scrollX = colStartX
	}
	m.clampScrollX()
}

// ═══════════════════════════════════════════════════════════════════════════
// ANSI-aware Viewport Slicing
// ═══════════════════════════════════════════════════════════════════════════

// applyViewport extracts a horizontal slice of a string, handling ANSI escape
// codes and wide runes. It returns the portion of the string from display
// column startX with the given width. A wide rune cut by either edge is
// replaced with spaces.
func applyViewport(s string, startX, width int) string {
	if width <= 0 {
		return ""
	}
	if startX < 0 {
		startX = 0
	}

	var result strings.Builder
	result.Grow(width + 64)

	visualPos := 0
	outputCells := 0
	stylesApplied := false
	inEscape := false
	escapeSeq := strings.Builder{}

	var activeStyles []string

	runes := []rune(s)
	i := 0

	for i < len(runes) && outputCells < width {
		r := runes[i]

		if r == '\x1b' && i+1 < len(runes) && runes[i+1] == '[' {
			inEscape = true
			escapeSeq.Reset()
			escapeSeq.WriteRune(r)
			i++
			continue
		}

		if inEscape {
			escapeSeq.WriteRune(r)
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
				seq := escapeSeq.String()

				if r == 'm' {
					if seq == "\x1b[0m" || seq == "\x1b[m" {
						activeStyles = nil
					} else {
						activeStyles = append(activeStyles, seq)
					}
				}

				if visualPos >= startX {
					result.WriteString(seq)
				}
			}
			i++
			continue
		}

		rw := runewidth.RuneWidth(r)
		if visualPos+rw > startX {
			if !stylesApplied && len(activeStyles) > 0 {
				for _, style := range activeStyles {
					result.WriteString(style)
				}
				stylesApplied = true
			}
			switch {
			case visualPos < startX:
				// cut by the left edge
				pad := visualPos + rw - startX
				result.WriteString(strings.Repeat(" ", pad))
				outputCells += pad
			case outputCells+rw > width:
				// cut by the right edge
				result.WriteString(strings.Repeat(" ", width-outputCells))
				outputCells = width
			default:
				result.WriteRune(r)
				outputCells += rw
			}
		}

		visualPos += rw
		i++
	}

	if len(activeStyles) > 0 && outputCells > 0 {
		result.WriteString("\x1b[0m")
	}

	if outputCells < width {
		result.WriteString(strings.Repeat(" ", width-outputCells))
	}

	return result.String()
}
