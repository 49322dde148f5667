package styles

import "github.com/charmbracelet/lipgloss"

// Color palette, dark mode optimized, semantic colors
var (
	// Primary semantic colors
	Accent  = lipgloss.Color("#7C3AED") // violet-500 - highlights, interactive
	Success = lipgloss.Color("#10B981") // emerald-500 - success
	Warning = lipgloss.Color("#F59E0B") // amber-500 - warnings, skipped rows
	Error   = lipgloss.Color("#EF4444") // red-500 - errors
	Info    = lipgloss.Color("#3B82F6") // blue-500 - info, cell refs
	Muted   = lipgloss.Color("#6B7280") // gray-500 - secondary text

	// Text colors
	TextPrimary   = lipgloss.Color("#F9FAFB") // gray-50 - main text
	TextSecondary = lipgloss.Color("#9CA3AF") // gray-400 - descriptions
	TextTertiary  = lipgloss.Color("#6B7280") // gray-500 - row numbers

	// Background colors
	BgHighlight = lipgloss.Color("#1F2937") // gray-800 - selected row
	BgBorder    = lipgloss.Color("#374151") // gray-700 - borders
	BgCell      = lipgloss.Color("#4C1D95") // violet-900 - selected cell
)

// Column type colors
var (
	ColorNumeric  = Info
	ColorDate     = Success
	ColorBoolean  = Warning
	ColorCategory = Accent
	ColorText     = TextSecondary

	ColorFiltered = Warning // headers of filtered columns
	ColorCellRef  = Info
)
