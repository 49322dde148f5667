package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/app"
	"github.com/imgajeed76/csvview/internal/config"
	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/logging"
	"github.com/imgajeed76/csvview/internal/task"
	"github.com/imgajeed76/csvview/internal/ui"
	"github.com/imgajeed76/csvview/internal/ui/grid"
	"github.com/imgajeed76/csvview/internal/util"
	"github.com/imgajeed76/csvview/internal/viewport"
)

// session is what every data command needs: config, logger and a runner.
type session struct {
	cfg    *config.Config
	log    *slog.Logger
	runner task.Runner
	closer func() error
}

// startSession loads the config and sets up logging from the global flags.
// tui routes verbose output to a file so it cannot draw over the screen.
func startSession(cmd *cobra.Command, tui bool) (*session, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")

	log, closer, err := logging.New(logging.Options{Verbose: verbose, File: logFile, TUI: tui})
	if err != nil {
		return nil, util.NewError("Cannot open log file").
			WithContext(logFile).
			Wrap(err)
	}

	cfg, err := config.Load()
	if err != nil {
		closer()
		return nil, util.NewError("Invalid config file").
			WithMessage(err.Error()).
			WithContext(config.Path()).
			WithSuggestions("csvview config --list").
			Wrap(err)
	}

	return &session{
		cfg:    cfg,
		log:    log,
		runner: task.Background{Logger: log},
		closer: closer,
	}, nil
}

// end releases the log file.
func (s *session) end() {
	_ = s.closer()
}

// appOptions maps the config onto coordinator options.
func (s *session) appOptions() app.Options {
	c := s.cfg
	return app.Options{
		Window: viewport.Window{
			RowHeight: c.View.RowHeight,
			Overscan:  c.View.Overscan,
		},
		SampleSize:          c.Infer.SampleSize,
		Debounce:            time.Duration(c.Filter.DebounceMS) * time.Millisecond,
		BackgroundThreshold: c.Filter.BackgroundThreshold,
		FilterWorkers:       c.Filter.Workers,
		ExportChunkRows:     c.Export.ChunkRows,
		ExportWorkers:       c.Export.Workers,
		Logger:              s.log,
	}
}

// load reads and parses path into a fresh State, showing progress on
// stderr, then applies the --filter flags.
func (s *session) load(ctx context.Context, path string, specs []string) (*app.State, error) {
	src, err := dataset.ReadFile(path)
	if err != nil {
		return nil, LoadError(path, err)
	}
	s.log.Debug("file read", "file", path, "size", humanize.Bytes(uint64(src.Size)))

	bar := &parseBar{label: "Parsing " + filepath.Base(path), show: src.Size > largeFile}
	parser := dataset.NewParser(dataset.Options{
		ChunkSize:  s.cfg.Parse.ChunkSize,
		Logger:     s.log,
		OnProgress: bar.update,
	})

	st := app.New(s.appOptions())
	err = st.Load(ctx, s.runner, parser, path, src.Text)
	bar.finish(err)
	if err != nil {
		return nil, LoadError(path, err)
	}

	preds, err := parseFilters(specs, st.Dataset().Headers)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return st, nil
	}
	for _, p := range preds {
		st.SetPredicate(p.Column, p.Kind, p.Value)
	}

	evalCtx, job := st.BeginEvaluate(ctx)
	view, err := job.Run(evalCtx, s.runner)
	if err := st.FinishEvaluate(job, view, err); err != nil {
		return nil, err
	}
	return st, nil
}

// largeFile is the size above which parsing shows a progress bar.
const largeFile = 1 << 20

// parseBar draws parse progress once the first chunk reports.
type parseBar struct {
	label string
	show  bool
	bar   *ui.Progress
}

func (b *parseBar) update(p dataset.Progress) {
	if !b.show {
		return
	}
	if b.bar == nil {
		b.bar = ui.NewProgress(b.label, p.Total)
	}
	b.bar.Update(p.Processed)
}

// finish completes the bar, or stops it where it is when err is set, so an
// error is never printed after a half-drawn line.
func (b *parseBar) finish(err error) {
	if b.bar == nil {
		return
	}
	if err != nil {
		b.bar.Stop()
	} else {
		b.bar.Done()
	}
	b.bar = nil
}

// parseFilters parses --filter flags. With headers set, every column must
// exist.
func parseFilters(specs []string, headers []string) ([]grid.Predicate, error) {
	preds := make([]grid.Predicate, 0, len(specs))
	for _, spec := range specs {
		column, kind, value, err := filter.ParseSpec(spec)
		if err != nil {
			return nil, util.InvalidFilterError(spec, err)
		}
		if headers != nil && !slices.Contains(headers, column) {
			return nil, util.UnknownColumnError(column, headers)
		}
		preds = append(preds, grid.Predicate{Column: column, Kind: kind, Value: value})
	}
	return preds, nil
}

// LoadError converts a read or parse failure into a structured error.
func LoadError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return util.NewError(fmt.Sprintf("File not found: %s", path)).
			WithSuggestions("ls " + filepath.Dir(path)).
			Wrap(err)
	case errors.Is(err, fs.ErrPermission):
		return util.NewError(fmt.Sprintf("Permission denied: %s", path)).
			Wrap(err)
	case errors.Is(err, dataset.ErrEmptyFile):
		return util.NewError("The file is empty").
			WithContext(path).
			Wrap(err)
	case errors.Is(err, dataset.ErrHeaderOnly):
		return util.NewError("The file has a header row but no data").
			WithContext(path).
			Wrap(err)
	case errors.Is(err, dataset.ErrNoDataRows):
		return util.NewError("No valid data rows found").
			WithContext(path).
			WithMessage("Every row has a different number of fields than the header.").
			WithCauses(
				"The delimiter was detected wrongly",
				"Fields contain unquoted delimiters",
			).
			Wrap(err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return util.NewError(fmt.Sprintf("Cannot read %s", path)).
		WithMessage(err.Error()).
		Wrap(err)
}

// outputPath returns the -o value, or the default export name with ext.
func outputPath(flag, ext string) string {
	if flag != "" {
		return flag
	}
	return strings.TrimSuffix(export.FileName(time.Now()), ".csv") + ext
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
