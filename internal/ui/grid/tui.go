package grid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imgajeed76/csvview/internal/app"
	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/task"
	"github.com/imgajeed76/csvview/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// Constants
// ═══════════════════════════════════════════════════════════════════════════

const (
	defaultColWidth = 20
	minColWidth     = 3
	hiddenColWidth  = 3

	// title, prompt, header, types, separator, indicators, status, help
	chromeLines = 8
)

// Column display state
type colState int

const (
	colStateDefault  colState = iota // truncated to the cell width
	colStateExpanded                 // full width
	colStateHidden                   // minimal width (just "...")
)

// Input mode
type inputMode int

const (
	modeNormal inputMode = iota
	modeFilter
	modeOpen
)

// Exit mode: what to do after quitting TUI
type exitMode int

const (
	exitNormal exitMode = iota
	exitJSON
	exitRaw
	exitPlain
)

// Options configures the interactive viewer.
type Options struct {
	// Path is opened on start. Empty starts at the open prompt.
	Path string
	// ChunkSize is passed to the parser; zero uses its default.
	ChunkSize int
	// CellWidth is the display width of a collapsed column.
	CellWidth int
	// ExportDir receives files written by the export key. Empty means the
	// working directory.
	ExportDir string
	Runner    task.Runner
	Logger    *slog.Logger
	// Out receives the J/R/P output after the TUI exits. Nil means stdout.
	Out io.Writer
	// Filters are applied once the first file has loaded.
	Filters []Predicate
}

// Predicate is one filter to pre-apply, as given on the command line.
type Predicate struct {
	Column string
	Kind   filter.Kind
	Value  string
}

// ═══════════════════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════════════════

type model struct {
	ctx    context.Context
	st     *app.State
	opts   Options
	runner task.Runner
	log    *slog.Logger

	ds            *dataset.Dataset // dataset the column layout was built for
	fullColWidths []int            // display width of each column's content
	colStates     []colState       // display state for each column
	colCursor     int              // selected column
	scrollX       int              // horizontal scroll offset in cells
	width         int              // terminal width
	height        int              // terminal height
	ready         bool

	mode     inputMode
	input    textinput.Model
	editCol  string
	editKind filter.Kind
	editPrev string
	choices  []string // known values of a category or boolean column
	choice   int      // index into choices, -1 while typing freely

	// in-flight load
	bar        progress.Model
	loadName   string
	loadTicket task.Ticket
	loadCtx    context.Context
	progress   chan dataset.Progress

	initial  []Predicate // filters waiting for the first load
	exitMode exitMode

	// Animation state for smooth scrolling
	animating   bool
	animTargetX int // target scrollX
	animTargetY int // target vertical offset, in state units

	// Status message (flash notification, e.g. after yank)
	statusMsg   string
	statusErr   bool
	statusUntil time.Time
}

// ═══════════════════════════════════════════════════════════════════════════
// Entry Point
// ═══════════════════════════════════════════════════════════════════════════

// Run launches the interactive viewer on st and blocks until the user
// quits. If the user asks for output (J/R/P), the current view is printed
// to opts.Out after the TUI exits.
func Run(ctx context.Context, st *app.State, opts Options) error {
	m := newModel(ctx, st, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(model)
	if !ok || fm.exitMode == exitNormal {
		return nil
	}
	ds := st.Dataset()
	if ds == nil {
		return nil
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	rows := ds.Rows(st.View())
	switch fm.exitMode {
	case exitJSON:
		return PrintJSON(out, ds.Headers, rows)
	case exitRaw:
		return PrintRaw(out, rows)
	default:
		return PrintPlainTable(out, ds.Headers, rows)
	}
}

func newModel(ctx context.Context, st *app.State, opts Options) model {
	if opts.CellWidth < minColWidth {
		opts.CellWidth = defaultColWidth
	}
	if opts.Runner == nil {
		opts.Runner = task.Background{Logger: opts.Logger}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	ti := textinput.New()
	ti.CharLimit = 4096
	ti.Width = 40

	m := model{
		ctx:     ctx,
		st:      st,
		opts:    opts,
		runner:  opts.Runner,
		log:     log,
		input:   ti,
		initial: opts.Filters,
		bar: progress.New(
			progress.WithSolidFill(string(styles.Accent)),
			progress.WithoutPercentage(),
			progress.WithWidth(30),
		),
	}
	m.syncLayout()
	if opts.Path == "" && st.Dataset() == nil {
		m.beginOpen()
	}
	return m
}

// ═══════════════════════════════════════════════════════════════════════════
// Bubble Tea Interface
// ═══════════════════════════════════════════════════════════════════════════

func (m model) Init() tea.Cmd {
	if m.opts.Path == "" {
		if m.mode == modeOpen {
			return textinput.Blink
		}
		return nil
	}
	path := m.opts.Path
	return func() tea.Msg { return openMsg{path: path} }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.st.Resize(m.visibleRowCount() * m.rowHeight())
		m.clampScrollX()

	case openMsg:
		cmd := m.startLoad(msg.path)
		return m, cmd

	case loadProgressMsg:
		if msg.ticket != m.loadTicket {
			return m, nil
		}
		cmd := m.bar.SetPercent(msg.progress.Fraction())
		return m, tea.Batch(cmd, m.waitProgress())

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		if bar, ok := pm.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd

	case loadDoneMsg:
		cmd := m.finishLoad(msg)
		return m, cmd

	case debounceMsg:
		return m, m.evaluate(msg.seq)

	case evalDoneMsg:
		err := m.st.FinishEvaluate(msg.job, msg.view, msg.err)
		if err != nil && !errors.Is(err, app.ErrSuperseded) && !errors.Is(err, context.Canceled) {
			cmd := m.setError(fmt.Sprintf("filter failed: %s", err))
			return m, cmd
		}
		m.ensureColVisible()

	case exportRenderedMsg:
		cmd := m.finishExport(msg)
		return m, cmd

	case exportWrittenMsg:
		if msg.err != nil {
			cmd := m.setError(fmt.Sprintf("export failed: %s", msg.err))
			return m, cmd
		}
		cmd := m.setStatus(fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path))
		return m, cmd

	case animTickMsg:
		// Handle animation frame
		cmd := m.updateAnimation()
		return m, cmd

	case statusClearMsg:
		// Clear the flash message if it has expired
		if !m.statusUntil.IsZero() && time.Now().After(m.statusUntil) {
			m.statusMsg = ""
			m.statusErr = false
			m.statusUntil = time.Time{}
		}
		return m, nil

	case tea.KeyMsg:
		// Cancel any ongoing animation when user presses a key
		m.cancelAnimation()

		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeOpen:
			return m.updateOpen(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, keys.Open) {
		m.beginOpen()
		return m, textinput.Blink
	}
	if m.ds == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Filter):
		return m.beginFilter(false)

	case key.Matches(msg, keys.FilterAlt):
		return m.beginFilter(true)

	case key.Matches(msg, keys.ClearColumn):
		col := m.ds.Headers[m.colCursor]
		if !m.st.Filters().Has(col) {
			return m, nil
		}
		return m, debounce(m.st.Debounce(), m.st.ClearColumn(col))

	case key.Matches(msg, keys.ClearAll):
		m.st.ClearFilters()
		cmd := m.setStatus("Filters cleared")
		return m, cmd

	case key.Matches(msg, keys.Export):
		cmd := m.startExport()
		return m, cmd

	case key.Matches(msg, keys.Deselect):
		m.st.Deselect()

	case key.Matches(msg, keys.Up):
		m.move(-1, 0)

	case key.Matches(msg, keys.Down):
		m.move(1, 0)

	case key.Matches(msg, keys.Left):
		m.moveCol(-1)

	case key.Matches(msg, keys.Right):
		m.moveCol(1)

	case key.Matches(msg, keys.ShiftLeft):
		targetX := m.scrollX - m.halfWidth()
		cmd := m.startAnimation(targetX, m.offset())
		return m, cmd

	case key.Matches(msg, keys.ShiftRight):
		targetX := m.scrollX + m.halfWidth()
		cmd := m.startAnimation(targetX, m.offset())
		return m, cmd

	case key.Matches(msg, keys.ShiftUp):
		half := m.halfPage()
		m.moveSelection(-half)
		cmd := m.startAnimation(m.scrollX, m.offset()-half*m.rowHeight())
		return m, cmd

	case key.Matches(msg, keys.ShiftDown):
		half := m.halfPage()
		m.moveSelection(half)
		cmd := m.startAnimation(m.scrollX, m.offset()+half*m.rowHeight())
		return m, cmd

	case key.Matches(msg, keys.PageUp):
		m.page(-m.visibleRowCount())

	case key.Matches(msg, keys.PageDown):
		m.page(m.visibleRowCount())

	case key.Matches(msg, keys.Home):
		m.st.Scroll(0)
		m.scrollX = 0
		if _, ok := m.st.Selection(); ok {
			m.st.Select(0, m.colCursor)
		}

	case key.Matches(msg, keys.End):
		last := len(m.st.View()) - 1
		if last >= 0 {
			m.st.Select(last, m.colCursor)
		}

	case key.Matches(msg, keys.Expand):
		m.toggleColState(colStateExpanded)

	case key.Matches(msg, keys.Hide):
		m.toggleColState(colStateHidden)

	case key.Matches(msg, keys.YankCell):
		cmd := m.yankCell()
		return m, cmd

	case key.Matches(msg, keys.YankRow):
		cmd := m.yankRow()
		return m, cmd

	case key.Matches(msg, keys.ExportJSON):
		m.exitMode = exitJSON
		return m, tea.Quit

	case key.Matches(msg, keys.ExportRaw):
		m.exitMode = exitRaw
		return m, tea.Quit

	case key.Matches(msg, keys.ExportPlain):
		m.exitMode = exitPlain
		return m, tea.Quit
	}

	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Filter prompt
// ═══════════════════════════════════════════════════════════════════════════

// beginFilter edits the selected column's primary predicate, or its
// secondary one (the upper bound of a range) when alt is set.
func (m model) beginFilter(alt bool) (tea.Model, tea.Cmd) {
	col := m.ds.Headers[m.colCursor]
	primary, secondary := filter.KindsFor(m.st.Inferencer().Type(col))
	kind := primary
	if alt && secondary != "" {
		kind = secondary
	}

	prev, _ := m.st.Filters().Get(col, kind)
	m.mode = modeFilter
	m.editCol = col
	m.editKind = kind
	m.editPrev = prev
	m.choices, m.choice = nil, -1
	if kind == filter.Value {
		m.choices = m.st.Inferencer().Profile(col).Categories
		m.choice = slices.Index(m.choices, prev)
	}
	m.input.Placeholder = string(kind)
	m.input.SetValue(prev)
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endPrompt()
		if cur, _ := m.st.Filters().Get(m.editCol, m.editKind); cur == m.editPrev {
			return m, nil
		}
		seq := m.st.SetPredicate(m.editCol, m.editKind, m.editPrev)
		return m, debounce(m.st.Debounce(), seq)
	case tea.KeyEnter:
		m.endPrompt()
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		if len(m.choices) == 0 {
			return m, nil
		}
		step := 1
		if msg.Type == tea.KeyShiftTab {
			step = -1
		}
		switch {
		case m.choice < 0 && step < 0:
			m.choice = len(m.choices) - 1
		case m.choice < 0:
			m.choice = 0
		default:
			m.choice = (m.choice + step + len(m.choices)) % len(m.choices)
		}
		m.input.SetValue(m.choices[m.choice])
		m.input.CursorEnd()
		seq := m.st.SetPredicate(m.editCol, m.editKind, m.input.Value())
		return m, debounce(m.st.Debounce(), seq)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.choice = slices.Index(m.choices, m.input.Value())

	// Live filter as user types; evaluation waits for the debounce
	seq := m.st.SetPredicate(m.editCol, m.editKind, m.input.Value())
	return m, tea.Batch(cmd, debounce(m.st.Debounce(), seq))
}

// ═══════════════════════════════════════════════════════════════════════════
// Open prompt
// ═══════════════════════════════════════════════════════════════════════════

func (m *model) beginOpen() {
	m.mode = modeOpen
	m.input.Placeholder = "path/to/file.csv"
	m.input.SetValue("")
	m.input.Focus()
}

func (m model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endPrompt()
		if m.ds == nil && m.loadTicket == "" {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		path := m.input.Value()
		m.endPrompt()
		if path == "" {
			return m, nil
		}
		cmd := m.startLoad(path)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) endPrompt() {
	m.mode = modeNormal
	m.choices, m.choice = nil, -1
	m.input.Blur()
	m.input.SetValue("")
}

// ═══════════════════════════════════════════════════════════════════════════
// Selection
// ═══════════════════════════════════════════════════════════════════════════

func (m *model) move(dRow, dCol int) {
	if _, ok := m.st.Selection(); !ok {
		m.st.Move(0, 0)
		if sel, ok := m.st.Selection(); ok {
			m.st.Select(sel.Row, m.colCursor)
		}
		return
	}
	m.st.Move(dRow, dCol)
	if sel, ok := m.st.Selection(); ok {
		m.colCursor = sel.Col
	}
}

// moveCol steps the column cursor. A column wider than the viewport is
// scrolled through in steps of 3 before the cursor leaves it.
func (m *model) moveCol(d int) {
	viewportWidth := m.viewportWidth()
	if d < 0 {
		colStartX := m.getColStartX(m.colCursor)
		if colStartX < m.scrollX {
			m.scrollX -= 3
			if m.scrollX < colStartX {
				m.scrollX = colStartX
			}
			m.clampScrollX()
			return
		}
		if m.colCursor == 0 {
			return
		}
		m.colCursor--
		m.syncSelectionCol()
		m.ensureColVisibleFromRight()
		return
	}

	colEndX := m.getColEndX(m.colCursor)
	if colEndX > m.scrollX+viewportWidth {
		m.scrollX += 3
		m.clampScrollX()
		return
	}
	if m.colCursor >= len(m.colStates)-1 {
		return
	}
	m.colCursor++
	m.syncSelectionCol()
	m.ensureColVisibleFromLeft()
}

func (m *model) syncSelectionCol() {
	if sel, ok := m.st.Selection(); ok {
		m.st.Select(sel.Row, m.colCursor)
	}
}

// moveSelection shifts the selected row by n without scrolling; the caller
// animates the viewport.
func (m *model) moveSelection(n int) {
	sel, ok := m.st.Selection()
	if !ok {
		return
	}
	row := sel.Row + n
	if last := len(m.st.View()) - 1; row > last {
		row = last
	}
	if row < 0 {
		row = 0
	}
	offset := m.offset()
	m.st.Select(row, sel.Col)
	m.st.Scroll(offset)
}

func (m *model) page(n int) {
	if _, ok := m.st.Selection(); ok {
		m.st.Move(n, 0)
		return
	}
	m.st.ScrollBy(n * m.rowHeight())
}

func (m *model) toggleColState(state colState) {
	if m.colCursor >= len(m.colStates) {
		return
	}
	if m.colStates[m.colCursor] == state {
		m.colStates[m.colCursor] = colStateDefault
	} else {
		m.colStates[m.colCursor] = state
	}
	m.ensureColVisible()
}
