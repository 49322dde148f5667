// Package logging builds the diagnostic logger. Logs are off unless asked
// for, go to stderr with --verbose, or to a file with --log-file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

// Options selects where diagnostics go.
type Options struct {
	Verbose bool
	File    string

	// TUI is set when the alternate screen owns the terminal. Verbose logs
	// then go to DefaultFile instead of stderr.
	TUI bool
}

// DefaultFile is where verbose logs go while the TUI is running.
func DefaultFile() string {
	return filepath.Join(os.TempDir(), "csvview.log")
}

// New returns a logger for opts and a function that releases its file.
// It also installs the logger as slog's default.
func New(opts Options) (*slog.Logger, func() error, error) {
	var w io.Writer
	closer := func() error { return nil }

	if opts.Verbose && opts.TUI && opts.File == "" {
		opts.File = DefaultFile()
	}

	switch {
	case opts.File != "":
		// also points the standard log package at the file
		f, err := tea.LogToFile(opts.File, "csvview")
		if err != nil {
			return nil, closer, err
		}
		w, closer = f, f.Close
	case opts.Verbose:
		w = os.Stderr
	default:
		logger := Discard()
		slog.SetDefault(logger)
		return logger, closer, nil
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
