package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/sink"
	"github.com/imgajeed76/csvview/internal/ui"
	"github.com/imgajeed76/csvview/internal/ui/grid"
	"github.com/imgajeed76/csvview/internal/ui/styles"
	"github.com/imgajeed76/csvview/internal/util"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the (filtered) rows of a file",
		Long: `Export the rows of a delimited file, optionally filtered.

Formats:
  csv     UTF-8 with BOM, every field quoted (default)
  json    array of objects keyed by header
  sqlite  a table in a SQLite database; numeric columns become REAL
          unless a cell in the rows does not parse, then TEXT

Without -o the output is export_<date>.csv (or .json / .db). Use -o - to
write csv or json to stdout.

Examples:
  csvview export sales.csv --filter "units:min=10"
  csvview export sales.tsv --format json -o - | jq length
  csvview export sales.csv --format sqlite -o sales.db --table sales`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (- for stdout)")
	cmd.Flags().StringP("format", "f", "csv", "Output format: csv, json or sqlite")
	cmd.Flags().String("table", "", "Table name for sqlite (default: file name)")
	cmd.Flags().StringArray("filter", nil, "Filter as column:kind=value (repeatable)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	table, _ := cmd.Flags().GetString("table")
	specs, _ := cmd.Flags().GetStringArray("filter")

	format = strings.ToLower(format)
	switch format {
	case "csv", "json", "sqlite":
	default:
		return util.NewError(fmt.Sprintf("Unknown format: %s", format)).
			WithSuggestions("csvview export data.csv --format csv|json|sqlite")
	}
	if format == "sqlite" && output == "-" {
		return util.NewError("SQLite output cannot go to stdout").
			WithSuggestions("csvview export data.csv --format sqlite -o data.db")
	}

	s, err := startSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.end()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := s.load(ctx, args[0], specs)
	if err != nil {
		return err
	}
	ds := st.Dataset()
	rows := len(st.View())

	var path string
	switch format {
	case "csv":
		path = outputPath(output, ".csv")
		exportCtx, job := st.BeginExport(ctx)
		data, err := job.Run(exportCtx, s.runner)
		if err := st.FinishExport(job, err); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		if path != "-" {
			fmt.Fprintln(os.Stderr, styles.SuccessMsg(fmt.Sprintf("Exported %s rows to %s (%s)",
				humanize.Comma(int64(rows)), path, humanize.Bytes(uint64(len(data))))))
		}

	case "json":
		path = outputPath(output, ".json")
		var buf bytes.Buffer
		if err := grid.PrintJSON(&buf, ds.Headers, ds.Rows(st.View())); err != nil {
			return err
		}
		if err := writeOutput(path, buf.Bytes()); err != nil {
			return err
		}
		if path != "-" {
			fmt.Fprintln(os.Stderr, styles.SuccessMsg(fmt.Sprintf("Exported %s rows to %s", humanize.Comma(int64(rows)), path)))
		}

	case "sqlite":
		path = outputPath(output, ".db")
		if table == "" {
			table = defaultTable(args[0])
		}
		tbl := sink.BuildTable(table, ds, st.View(), st.Inferencer().Types())

		bar := ui.NewProgress("Writing "+tbl.Name, tbl.Len())
		err := sink.WriteSQLite(ctx, path, tbl, func(done, total int) {
			bar.Update(done)
		})
		if err != nil {
			return util.NewError("SQLite export failed").
				WithContext(path).
				WithMessage(err.Error()).
				Wrap(err)
		}
		bar.Done()
		fmt.Fprintln(os.Stderr, styles.SuccessMsg(fmt.Sprintf("Wrote %s rows to table %s in %s",
			humanize.Comma(int64(rows)), styles.Cyan(tbl.Name), path)))
	}

	s.log.Debug("export finished", "file", args[0], "format", format, "output", path, "rows", rows)
	return nil
}
