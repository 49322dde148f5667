package grid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/imgajeed76/csvview/internal/app"
	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/task"
)

// ═══════════════════════════════════════════════════════════════════════════
// Messages
// ═══════════════════════════════════════════════════════════════════════════

type openMsg struct {
	path string
}

type loadProgressMsg struct {
	ticket   task.Ticket
	progress dataset.Progress
}

type loadDoneMsg struct {
	job app.LoadJob
	ds  *dataset.Dataset
	err error
}

type debounceMsg struct {
	seq uint64
}

type evalDoneMsg struct {
	job  app.EvalJob
	view []int
	err  error
}

type exportRenderedMsg struct {
	job  app.ExportJob
	data []byte
	err  error
}

type exportWrittenMsg struct {
	path string
	rows int
	err  error
}

// ═══════════════════════════════════════════════════════════════════════════
// Loading
// ═══════════════════════════════════════════════════════════════════════════

// startLoad reads and parses path off the UI goroutine. Progress is reported
// through a buffered channel; updates are dropped rather than block the
// parser when the UI falls behind.
func (m *model) startLoad(path string) tea.Cmd {
	if m.mode == modeOpen {
		m.endPrompt()
	}
	ctx, job := m.st.BeginLoad(m.ctx, path)
	ch := make(chan dataset.Progress, 16)

	m.loadName = path
	m.loadTicket = job.Ticket
	m.loadCtx = ctx
	m.progress = ch
	reset := m.bar.SetPercent(0)

	runner := m.runner
	chunkSize := m.opts.ChunkSize
	log := m.log
	load := func() tea.Msg {
		ds, err := task.Do(ctx, runner, "load", func(ctx context.Context) (*dataset.Dataset, error) {
			src, err := dataset.ReadFile(path)
			if err != nil {
				return nil, err
			}
			log.Debug("file read", "file", path, "bytes", src.Size)
			p := dataset.NewParser(dataset.Options{
				ChunkSize: chunkSize,
				Logger:    log,
				OnProgress: func(p dataset.Progress) {
					select {
					case ch <- p:
					default:
					}
				},
			})
			return p.Parse(ctx, src.Text)
		})
		return loadDoneMsg{job: job, ds: ds, err: err}
	}

	return tea.Batch(reset, load, m.waitProgress())
}

// waitProgress delivers the next progress update of the current load. It
// stops once the load's context is done.
func (m model) waitProgress() tea.Cmd {
	ctx, ch, ticket := m.loadCtx, m.progress, m.loadTicket
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case p := <-ch:
			return loadProgressMsg{ticket: ticket, progress: p}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *model) finishLoad(msg loadDoneMsg) tea.Cmd {
	err := m.st.FinishLoad(msg.job, msg.ds, msg.err)
	if errors.Is(err, app.ErrSuperseded) {
		return nil
	}
	m.loadName = ""
	m.loadTicket = ""
	m.loadCtx = nil
	m.progress = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return m.setError(fmt.Sprintf("could not load %s: %s", msg.job.Name, err))
	}

	m.syncLayout()
	ds := m.st.Dataset()
	status := fmt.Sprintf("Loaded %s rows from %s", humanize.Comma(int64(ds.Len())), filepath.Base(msg.job.Name))
	if n := len(ds.Skipped); n > 0 {
		status += fmt.Sprintf(" (%s malformed rows skipped)", humanize.Comma(int64(n)))
	}
	if len(m.initial) > 0 {
		return tea.Batch(m.setStatus(status), m.applyInitial())
	}
	return m.setStatus(status)
}

// applyInitial applies the command-line filters to the first loaded file and
// evaluates them at once.
func (m *model) applyInitial() tea.Cmd {
	preds := m.initial
	m.initial = nil

	ds := m.st.Dataset()
	var seq uint64
	for _, p := range preds {
		if !slices.Contains(ds.Headers, p.Column) {
			return m.setError(fmt.Sprintf("filter column %q not found", p.Column))
		}
		seq = m.st.SetPredicate(p.Column, p.Kind, p.Value)
	}
	return m.evaluate(seq)
}

// ═══════════════════════════════════════════════════════════════════════════
// Filtering
// ═══════════════════════════════════════════════════════════════════════════

// debounce reports seq once d has passed. Only the newest edit survives
// DebounceDue, so a burst of keystrokes evaluates once.
func debounce(d time.Duration, seq uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

func (m model) evaluate(seq uint64) tea.Cmd {
	if !m.st.DebounceDue(seq) {
		return nil
	}
	ctx, job := m.st.BeginEvaluate(m.ctx)
	runner := m.runner
	return func() tea.Msg {
		view, err := job.Run(ctx, runner)
		return evalDoneMsg{job: job, view: view, err: err}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Export
// ═══════════════════════════════════════════════════════════════════════════

func (m *model) startExport() tea.Cmd {
	ctx, job := m.st.BeginExport(m.ctx)
	runner := m.runner
	render := func() tea.Msg {
		data, err := job.Run(ctx, runner)
		return exportRenderedMsg{job: job, data: data, err: err}
	}
	return tea.Batch(render, m.setStatus(fmt.Sprintf("Exporting %s rows...", humanize.Comma(int64(len(job.View))))))
}

func (m *model) finishExport(msg exportRenderedMsg) tea.Cmd {
	err := m.st.FinishExport(msg.job, msg.err)
	switch {
	case errors.Is(err, app.ErrSuperseded), errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return m.setError(fmt.Sprintf("export failed: %s", err))
	}

	path := filepath.Join(m.opts.ExportDir, export.FileName(time.Now()))
	rows := len(msg.job.View)
	data := msg.data
	log := m.log
	return func() tea.Msg {
		err := os.WriteFile(path, data, 0o644)
		if err == nil {
			log.Debug("export written", "file", path, "rows", rows, "bytes", len(data))
		}
		return exportWrittenMsg{path: path, rows: rows, err: err}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Animation
// ═══════════════════════════════════════════════════════════════════════════

type animTickMsg time.Time

const animationFrameInterval = 16 * time.Millisecond
const animationFraction = 0.25
const animationSnapThreshold = 1

func animTick() tea.Cmd {
	return tea.Tick(animationFrameInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func (m *model) startAnimation(targetX, targetY int) tea.Cmd {
	maxX := m.getMaxScrollX()
	if targetX < 0 {
		targetX = 0
	} else if targetX > maxX {
		targetX = maxX
	}

	maxY := m.getMaxOffset()
	if targetY < 0 {
		targetY = 0
	} else if targetY > maxY {
		targetY = maxY
	}

	m.animTargetX = targetX
	m.animTargetY = targetY

	if targetX == m.scrollX && targetY == m.offset() {
		m.animating = false
		return nil
	}

	if !m.animating {
		m.animating = true
		return animTick()
	}

	return nil
}

func (m *model) updateAnimation() tea.Cmd {
	if !m.animating {
		return nil
	}

	offset := m.offset()
	remainingX := m.animTargetX - m.scrollX
	remainingY := m.animTargetY - offset

	if abs(remainingX) <= animationSnapThreshold && abs(remainingY) <= animationSnapThreshold {
		m.scrollX = m.animTargetX
		m.st.Scroll(m.animTargetY)
		m.animating = false
		return nil
	}

	m.scrollX += step(remainingX)
	m.st.Scroll(offset + step(remainingY))

	return animTick()
}

// step is the distance covered in one frame: a fraction of what remains,
// at least one cell.
func step(remaining int) int {
	if remaining == 0 {
		return 0
	}
	d := int(float64(remaining) * animationFraction)
	if d == 0 {
		if remaining > 0 {
			d = 1
		} else {
			d = -1
		}
	}
	return d
}

func (m *model) cancelAnimation() {
	m.animating = false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ═══════════════════════════════════════════════════════════════════════════
// Status Message (flash notification)
// ═══════════════════════════════════════════════════════════════════════════

type statusClearMsg struct{}

const statusDuration = 2 * time.Second

// setStatus sets a temporary status message that auto-clears.
func (m *model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = false
	m.statusUntil = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(t time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m *model) setError(msg string) tea.Cmd {
	m.log.Warn(msg)
	cmd := m.setStatus(msg)
	m.statusErr = true
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════
// Clipboard (yank)
// ═══════════════════════════════════════════════════════════════════════════

// yankCell copies the selected cell value to the system clipboard.
func (m *model) yankCell() tea.Cmd {
	f := m.st.Frame()
	if f.Selected == nil {
		return m.setStatus("Select a cell first")
	}
	val := f.Selected.Value
	if err := clipboard.WriteAll(val); err != nil {
		return m.setError(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied %s: %s", f.Selected.Ref, runewidth.Truncate(val, 40, "...")))
}

// yankRow copies the entire selected row (tab-separated) to the clipboard.
func (m *model) yankRow() tea.Cmd {
	sel, ok := m.st.Selection()
	if !ok {
		return m.setStatus("Select a cell first")
	}
	row := m.ds.Row(m.st.View()[sel.Row])
	if err := clipboard.WriteAll(strings.Join(row, "\t")); err != nil {
		return m.setError(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied row %d (%d columns)", sel.Row+2, len(row)))
}
