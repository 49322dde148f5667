// Package grid shows a loaded CSV: an interactive spreadsheet-like TUI with
// per-column filters, column expand/hide and smooth scrolling, plus plain
// table, JSON and raw tab-separated printers for pipes.
//
// The TUI keeps no data of its own. Every key press becomes a call on an
// app.State, and every frame is drawn from app.State.Frame.
package grid

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DisplayOptions controls how results are rendered.
type DisplayOptions struct {
	// JSON outputs results as a JSON array of objects.
	JSON bool
	// Raw outputs results as tab-separated values (for piping).
	Raw bool
	// NoPager forces plain table output even on a TTY.
	NoPager bool
}

// Interactive reports whether the TUI should run for opts on w.
func Interactive(w io.Writer, opts DisplayOptions) bool {
	if opts.JSON || opts.Raw || opts.NoPager {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Print renders columns and rows to w in the non-interactive mode opts
// selects: raw, JSON, or an aligned plain table.
func Print(w io.Writer, columns []string, rows [][]string, opts DisplayOptions) error {
	switch {
	case opts.Raw:
		return PrintRaw(w, rows)
	case opts.JSON:
		return PrintJSON(w, columns, rows)
	default:
		return PrintPlainTable(w, columns, rows)
	}
}
