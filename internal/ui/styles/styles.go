package styles

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"

	"github.com/imgajeed76/csvview/internal/infer"
)

// Symbols - Unicode with ASCII fallbacks
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "●"
	SymbolFilter  = "▼"
	SymbolArrow   = "→"
)

var forceNoColor atomic.Bool

// SetNoColor disables colors regardless of the environment (--no-color).
func SetNoColor(v bool) {
	forceNoColor.Store(v)
}

// NoColor checks if colors should be disabled
func NoColor() bool {
	return forceNoColor.Load() || os.Getenv("NO_COLOR") != "" || os.Getenv("CSVVIEW_NO_COLOR") != ""
}

// IsAccessible checks if accessibility mode is enabled
// When enabled: no animations, no spinner, simplified output
func IsAccessible() bool {
	return os.Getenv("CSVVIEW_ACCESSIBLE") == "1" || os.Getenv("CSVVIEW_ACCESSIBLE") == "true"
}

// Base text styles
var (
	Bold      = lipgloss.NewStyle().Bold(true)
	Dim       = lipgloss.NewStyle().Foreground(Muted)
	Underline = lipgloss.NewStyle().Underline(true)
)

// Semantic styles - use these instead of raw colors
var (
	// Message types
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)

	// Grid
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	FilteredStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorFiltered)
	RowNumStyle   = lipgloss.NewStyle().Foreground(TextTertiary)
	CellRefStyle  = lipgloss.NewStyle().Foreground(ColorCellRef).Bold(true)
	SepStyle      = lipgloss.NewStyle().Foreground(BgBorder)

	// Interactive TUI
	SelectedStyle     = lipgloss.NewStyle().Background(BgHighlight).Foreground(TextPrimary)
	SelectedCellStyle = lipgloss.NewStyle().Background(BgCell).Foreground(TextPrimary).Bold(true)

	// Help bar
	HelpKey   = lipgloss.NewStyle().Foreground(Accent)
	HelpValue = lipgloss.NewStyle().Foreground(Muted)
)

// ═══════════════════════════════════════════════════════════════════════════
// Render functions - centralized formatting with NoColor support
// ═══════════════════════════════════════════════════════════════════════════

// render applies a style if colors are enabled
func render(s lipgloss.Style, text string) string {
	if NoColor() {
		return text
	}
	return s.Render(text)
}

// Render applies s unless colors are disabled.
func Render(s lipgloss.Style, text string) string {
	return render(s, text)
}

// TypeColor returns the color used for a column type
func TypeColor(t infer.ColumnType) lipgloss.Color {
	switch t {
	case infer.Numeric:
		return ColorNumeric
	case infer.Date:
		return ColorDate
	case infer.Boolean:
		return ColorBoolean
	case infer.Category:
		return ColorCategory
	default:
		return ColorText
	}
}

// TypeLabel formats the label of a column type
func TypeLabel(t infer.ColumnType) string {
	return render(lipgloss.NewStyle().Foreground(TypeColor(t)), t.Label())
}

// CellRef formats a spreadsheet cell reference like "C14"
func CellRef(ref string) string {
	return render(CellRefStyle, ref)
}

// Header formats a column header, highlighted when the column is filtered
func Header(name string, filtered bool) string {
	if filtered {
		if NoColor() {
			return name + "*"
		}
		return FilteredStyle.Render(name)
	}
	return render(HeaderStyle, name)
}

// ═══════════════════════════════════════════════════════════════════════════
// Message formatters - structured output
// ═══════════════════════════════════════════════════════════════════════════

// SuccessMsg formats a success message with checkmark
func SuccessMsg(msg string) string {
	symbol := SymbolSuccess
	if NoColor() {
		symbol = "+"
	}
	return fmt.Sprintf("%s %s", render(SuccessStyle, symbol), msg)
}

// ErrorMsg formats an error message
func ErrorMsg(title string) string {
	return render(ErrorStyle, "Error: "+title)
}

// WarningMsg formats a warning message
func WarningMsg(msg string) string {
	symbol := SymbolWarning
	if NoColor() {
		symbol = "!"
	}
	return fmt.Sprintf("%s %s", render(WarningStyle, symbol), msg)
}

// InfoMsg formats an info message
func InfoMsg(msg string) string {
	return render(InfoStyle, msg)
}

// MutedMsg formats muted/secondary text
func MutedMsg(msg string) string {
	return render(MutedStyle, msg)
}

// ═══════════════════════════════════════════════════════════════════════════
// Section formatters - consistent output structure
// ═══════════════════════════════════════════════════════════════════════════

// SectionHeader formats a section header
func SectionHeader(title string) string {
	return render(Bold, title)
}

// HelpLine formats a help line (key description)
func HelpLine(key, description string) string {
	return fmt.Sprintf("  %s %s", render(HelpKey, key), render(MutedStyle, description))
}

// Indent returns text indented by n spaces
func Indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// ═══════════════════════════════════════════════════════════════════════════
// Color functions - simple string coloring (non-printf versions)
// ═══════════════════════════════════════════════════════════════════════════

func Yellow(s string) string      { return render(WarningStyle, s) }
func Green(s string) string       { return render(SuccessStyle, s) }
func Red(s string) string         { return render(ErrorStyle, s) }
func Cyan(s string) string        { return render(InfoStyle, s) }
func Mute(s string) string        { return render(MutedStyle, s) }
func SuccessText(s string) string { return render(SuccessStyle, s) }
func WarningText(s string) string { return render(WarningStyle, s) }
func ErrorText(s string) string   { return render(ErrorStyle, s) }

// Printf-style color functions
func Yellowf(format string, a ...any) string { return Yellow(fmt.Sprintf(format, a...)) }
func Cyanf(format string, a ...any) string   { return Cyan(fmt.Sprintf(format, a...)) }
func Mutef(format string, a ...any) string   { return Mute(fmt.Sprintf(format, a...)) }
func Boldf(format string, a ...any) string   { return render(Bold, fmt.Sprintf(format, a...)) }
