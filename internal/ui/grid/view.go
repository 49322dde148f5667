package grid

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/imgajeed76/csvview/internal/app"
	"github.com/imgajeed76/csvview/internal/infer"
	"github.com/imgajeed76/csvview/internal/ui/styles"
	"github.com/imgajeed76/csvview/internal/viewport"
)

// ═══════════════════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════════════════

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	f := m.st.Frame()
	var sb strings.Builder

	sb.WriteString(m.titleLine(f))
	sb.WriteString("\n")
	sb.WriteString(m.promptLine(f))
	sb.WriteString("\n")

	if f.Empty() {
		sb.WriteString(styles.MutedMsg("No file loaded. Press o to open a CSV or TSV file."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderTable(f))
	}

	// Footer
	sb.WriteString("\n")
	sb.WriteString(m.statusLine(f))
	sb.WriteString("\n")
	sb.WriteString(m.helpLine())

	return sb.String()
}

func (m model) titleLine(f app.Frame) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)

	var title string
	switch {
	case f.Empty():
		title = "csvview"
	case f.Shown != f.Total:
		title = fmt.Sprintf("%s: %s/%s rows, %d columns", filepath.Base(f.Name), humanize.Comma(int64(f.Shown)), humanize.Comma(int64(f.Total)), len(f.Headers))
	default:
		title = fmt.Sprintf("%s: %s rows, %d columns", filepath.Base(f.Name), humanize.Comma(int64(f.Total)), len(f.Headers))
	}
	line := styles.Render(headerStyle, title)
	if !f.Empty() {
		line += styles.MutedMsg(fmt.Sprintf("  (%s)", f.Delimiter))
	}

	// Show state indicators for modified columns
	var stateInfo []string
	for i, state := range m.colStates {
		if i >= len(f.Headers) {
			break
		}
		if state == colStateExpanded {
			stateInfo = append(stateInfo, fmt.Sprintf("%s+", f.Headers[i]))
		} else if state == colStateHidden {
			stateInfo = append(stateInfo, fmt.Sprintf("%s-", f.Headers[i]))
		}
	}
	if len(stateInfo) > 0 {
		line += styles.MutedMsg(fmt.Sprintf("  [%s]", strings.Join(stateInfo, ", ")))
	}
	return line
}

// promptLine shows the active prompt, the load progress, or the filters.
func (m model) promptLine(f app.Frame) string {
	switch {
	case m.mode == modeFilter:
		line := fmt.Sprintf("%s %s: %s", styles.Render(styles.FilteredStyle, m.editCol), m.editKind, m.input.View())
		if len(m.choices) > 0 {
			line += "  " + styles.MutedMsg(choiceHint(m.choices, m.choice))
		}
		return line
	case m.mode == modeOpen:
		return "open: " + m.input.View()
	case f.Loading:
		bar := m.bar.View()
		if styles.NoColor() || styles.IsAccessible() {
			bar = ""
		}
		return fmt.Sprintf("%s %s", bar, styles.MutedMsg("loading "+filepath.Base(m.loadName)+"..."))
	case f.Filters != "":
		return styles.MutedMsg(fmt.Sprintf("%s %s", styles.SymbolFilter, f.Filters))
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Render Table
// ═══════════════════════════════════════════════════════════════════════════

func (m model) renderTable(f app.Frame) string {
	var sb strings.Builder

	if len(f.Headers) == 0 {
		return "No columns\n"
	}

	viewportWidth := m.viewportWidth()
	gutter := strings.Repeat(" ", m.gutterWidth())
	filtered := m.st.Filters()

	headerLine := m.buildFullHeaderLine(f, func(col string) bool { return filtered.Has(col) })
	sb.WriteString(gutter)
	sb.WriteString(applyViewport(headerLine, m.scrollX, viewportWidth))
	sb.WriteString("\n")
	sb.WriteString(gutter)
	sb.WriteString(applyViewport(m.buildFullTypeLine(f.Types), m.scrollX, viewportWidth))
	sb.WriteString("\n")
	sb.WriteString(gutter)
	sb.WriteString(applyViewport(m.buildFullSeparatorLine(), m.scrollX, viewportWidth))
	sb.WriteString("\n")

	// Overscan rows below the screen edge are materialized but not drawn
	visibleRows := m.visibleRowCount()
	bottom := f.Offset + visibleRows*m.rowHeight()
	drawn := 0
	for _, row := range f.Rows {
		if row.Offset+m.rowHeight() <= f.Offset || row.Offset >= bottom || drawn >= visibleRows {
			continue
		}
		selCol := -1
		if f.Selected != nil && f.Selected.Row == row.Pos {
			selCol = f.Selected.Col
		}
		sb.WriteString(m.rowNumber(row.Pos, selCol >= 0))
		sb.WriteString(applyViewport(m.buildFullRowLine(row.Cells, selCol), m.scrollX, viewportWidth))
		sb.WriteString("\n")
		drawn++
	}
	for ; drawn < visibleRows; drawn++ {
		sb.WriteString("\n")
	}

	// Scroll indicators
	var indicators []string
	if m.scrollX > 0 {
		indicators = append(indicators, "◀")
	}
	if m.scrollX+viewportWidth < m.getTotalWidth() {
		indicators = append(indicators, "▶")
	}
	if f.Offset > 0 {
		indicators = append(indicators, "▲")
	}
	if f.Offset+f.Height < f.TotalHeight {
		indicators = append(indicators, "▼")
	}
	if f.Shown == 0 {
		indicators = append(indicators, "no rows match the filters")
	}
	if len(indicators) > 0 {
		sb.WriteString(styles.MutedMsg(strings.Join(indicators, " ")))
	}

	return sb.String()
}

// rowNumber renders the gutter: the spreadsheet row number of view
// position pos.
func (m model) rowNumber(pos int, selected bool) string {
	num := viewport.PadOrTruncate(strconv.Itoa(pos+2), m.gutterWidth()-1) + " "
	if selected {
		return styles.Render(styles.CellRefStyle, num)
	}
	return styles.Render(styles.RowNumStyle, num)
}

func (m model) buildFullHeaderLine(f app.Frame, filtered func(string) bool) string {
	var sb strings.Builder

	selectedHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Accent).Underline(true)

	for i, colName := range f.Headers {
		colWidth := m.getColDisplayWidth(i)

		var displayName string
		if m.colStates[i] == colStateHidden {
			displayName = viewport.PadOrTruncate("...", colWidth)
		} else {
			displayName = viewport.PadOrTruncate(colName, colWidth)
		}

		switch {
		case i == m.colCursor:
			sb.WriteString(styles.Render(selectedHeaderStyle, displayName))
		case filtered(colName):
			sb.WriteString(styles.Render(styles.FilteredStyle, displayName))
		default:
			sb.WriteString(styles.Render(styles.HeaderStyle, displayName))
		}
		sb.WriteString("  ")
	}

	return sb.String()
}

func (m model) buildFullTypeLine(types []infer.ColumnType) string {
	var sb strings.Builder

	for i, t := range types {
		colWidth := m.getColDisplayWidth(i)
		label := ""
		if m.colStates[i] != colStateHidden {
			label = t.Label()
		}
		style := lipgloss.NewStyle().Foreground(styles.TypeColor(t))
		sb.WriteString(styles.Render(style, viewport.PadOrTruncate(label, colWidth)))
		sb.WriteString("  ")
	}

	return sb.String()
}

func (m model) buildFullSeparatorLine() string {
	var sb strings.Builder

	selectedSepStyle := lipgloss.NewStyle().Foreground(styles.Accent)

	for i := range m.colStates {
		sep := strings.Repeat("─", m.getColDisplayWidth(i))
		if i == m.colCursor {
			sb.WriteString(styles.Render(selectedSepStyle, sep))
		} else {
			sb.WriteString(styles.Render(styles.SepStyle, sep))
		}
		sb.WriteString("  ")
	}

	return sb.String()
}

// buildFullRowLine renders one row; selCol is the selected column when the
// row holds the selection, -1 otherwise.
func (m model) buildFullRowLine(row []string, selCol int) string {
	var sb strings.Builder

	for i := range m.colStates {
		colWidth := m.getColDisplayWidth(i)

		var val string
		if i < len(row) {
			val = row[i]
		}

		var displayVal string
		if m.colStates[i] == colStateHidden {
			displayVal = viewport.PadOrTruncate("...", colWidth)
		} else {
			displayVal = viewport.PadOrTruncate(val, colWidth)
		}

		switch {
		case i == selCol:
			sb.WriteString(styles.Render(styles.SelectedCellStyle, displayVal))
		case selCol >= 0:
			sb.WriteString(styles.Render(styles.SelectedStyle, displayVal))
		default:
			sb.WriteString(displayVal)
		}
		if selCol >= 0 {
			sb.WriteString(styles.Render(styles.SelectedStyle, "  "))
		} else {
			sb.WriteString("  ")
		}
	}

	return sb.String()
}

// ═══════════════════════════════════════════════════════════════════════════
// Footer
// ═══════════════════════════════════════════════════════════════════════════

// statusLine shows the flash message, the selected cell with its
// untruncated value, and what work is in flight.
func (m model) statusLine(f app.Frame) string {
	var parts []string
	if m.statusMsg != "" && time.Now().Before(m.statusUntil) {
		if m.statusErr {
			parts = append(parts, styles.ErrorMsg(m.statusMsg))
		} else {
			parts = append(parts, styles.SuccessMsg(m.statusMsg))
		}
	}
	if c := f.Selected; c != nil {
		parts = append(parts, fmt.Sprintf("%s %s %s %s",
			styles.CellRef(c.Ref),
			c.Column,
			styles.TypeLabel(c.Type),
			c.Value,
		))
	}
	if f.Skipped > 0 {
		parts = append(parts, styles.WarningText(fmt.Sprintf("%s malformed rows skipped", humanize.Comma(int64(f.Skipped)))))
	}
	switch {
	case f.Filtering:
		parts = append(parts, styles.Mute("filtering..."))
	case f.Pending:
		parts = append(parts, styles.Mute("filter pending"))
	}
	if f.Exporting {
		parts = append(parts, styles.Mute("exporting..."))
	}
	return strings.Join(parts, "  ")
}

func (m model) helpLine() string {
	switch m.mode {
	case modeFilter:
		if len(m.choices) > 0 {
			return styles.MutedMsg("type to filter  tab/⇧tab pick value  enter keep  esc revert")
		}
		return styles.MutedMsg("type to filter  enter keep  esc revert")
	case modeOpen:
		return styles.MutedMsg("enter open  esc cancel")
	}
	return styles.MutedMsg("↑↓←→ select  ⇧+arrow scroll  enter expand  H hide  f filter  F upper  x/X clear  e export  o open  y copy  J/R/P print  q quit")
}

// maxHintValues is how many category values the filter prompt lists.
const maxHintValues = 8

// choiceHint lists the values of a category column, marking the current one.
func choiceHint(choices []string, current int) string {
	shown := choices
	if len(shown) > maxHintValues {
		shown = shown[:maxHintValues]
	}
	vals := make([]string, len(shown))
	for i, v := range shown {
		if i == current {
			v = "[" + v + "]"
		}
		vals[i] = v
	}
	hint := "values: " + strings.Join(vals, ", ")
	if extra := len(choices) - len(shown); extra > 0 {
		hint += fmt.Sprintf(", +%d more", extra)
	}
	return hint
}
