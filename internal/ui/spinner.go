package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/imgajeed76/csvview/internal/ui/styles"
)

// Status output goes to stderr so stdout stays clean for data.
var statusOut io.Writer = os.Stderr

func statusIsTerminal() bool {
	f, ok := statusOut.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Spinner provides a simple animated spinner for long operations
type Spinner struct {
	message string
	done    chan struct{}
	wg      sync.WaitGroup
	static  bool
}

// NewSpinner creates a new spinner with the given message
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation in the background
func (s *Spinner) Start() {
	// Accessible mode or non-TTY: just print static message
	if styles.IsAccessible() || !statusIsTerminal() {
		s.static = true
		fmt.Fprintln(statusOut, s.message+"...")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		style := lipgloss.NewStyle().Foreground(styles.Accent)
		i := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				// Clear the spinner line
				fmt.Fprint(statusOut, "\r\033[K")
				return
			case <-ticker.C:
				frame := styles.Render(style, frames[i%len(frames)])
				fmt.Fprintf(statusOut, "\r%s %s", frame, s.message)
				i++
			}
		}
	}()
}

// Stop stops the spinner
func (s *Spinner) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(msg string) {
	s.Stop()
	fmt.Fprintln(statusOut, styles.SuccessMsg(msg))
}

// Error stops the spinner and shows an error message
func (s *Spinner) Error(msg string) {
	s.Stop()
	fmt.Fprintln(statusOut, styles.ErrorMsg(msg))
}

// ══════════════════════════════════════════════════════════════════════════
// Progress bar for operations with known progress
// ══════════════════════════════════════════════════════════════════════════

// Progress represents a progress bar
type Progress struct {
	total   int
	current int
	label   string
	width   int
	lastPct int
	bar     progress.Model
}

// NewProgress creates a new progress bar
func NewProgress(label string, total int) *Progress {
	return &Progress{
		label:   label,
		total:   total,
		width:   30,
		lastPct: -1,
		bar: progress.New(
			progress.WithSolidFill(string(styles.Success)),
			progress.WithoutPercentage(),
			progress.WithWidth(30),
		),
	}
}

// Update updates the progress and renders
func (p *Progress) Update(current int) {
	p.current = current
	p.render()
}

// Increment increments progress by 1
func (p *Progress) Increment() {
	p.current++
	p.render()
}

func (p *Progress) fraction() float64 {
	if p.total <= 0 {
		return 1
	}
	f := float64(p.current) / float64(p.total)
	if f > 1 {
		f = 1
	}
	return f
}

func (p *Progress) render() {
	pct := int(p.fraction() * 100)

	// Accessible mode or non-TTY: print simple text progress
	if styles.IsAccessible() || !statusIsTerminal() {
		// Print every 10% to avoid spam
		if pct/10 != p.lastPct/10 || p.lastPct < 0 {
			fmt.Fprintf(statusOut, "%s: %d%% (%s of %s)\n", p.label, pct,
				humanize.Comma(int64(p.current)), humanize.Comma(int64(p.total)))
		}
		p.lastPct = pct
		return
	}
	p.lastPct = pct

	var bar string
	if styles.NoColor() {
		filled := int(p.fraction() * float64(p.width))
		bar = strings.Repeat("#", filled) + strings.Repeat("-", p.width-filled)
	} else {
		bar = p.bar.ViewAs(p.fraction())
	}

	fmt.Fprintf(statusOut, "\r%s %s %3d%% [%s/%s]", p.label, bar, pct,
		humanize.Comma(int64(p.current)), humanize.Comma(int64(p.total)))
}

// Done finishes the progress bar
func (p *Progress) Done() {
	p.current = p.total
	p.render()
	if statusIsTerminal() && !styles.IsAccessible() {
		fmt.Fprintln(statusOut)
	}
}

// Stop ends the bar where it is, for work that failed before finishing.
// It moves to a fresh line so the next message is not drawn over the bar.
func (p *Progress) Stop() {
	if statusIsTerminal() && !styles.IsAccessible() {
		fmt.Fprintln(statusOut)
	}
}
