package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/app"
	"github.com/imgajeed76/csvview/internal/ui/grid"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a CSV or TSV file",
		Long: `Open a delimited file in the interactive grid.

On a terminal the file loads in the background with a progress bar. Use
the arrow keys to select cells, f to filter the current column (the kind
of filter follows the column type), x/X to clear filters and e to export
the filtered rows.

When stdout is not a terminal, or with --no-pager, --json or --raw, the
filtered rows are printed instead.

Examples:
  csvview view sales.csv
  csvview view sales.csv --filter "region:value=north" --filter "units:min=10"
  csvview view sales.tsv --json | jq '.[0]'`,
		Args: cobra.MaximumNArgs(1),
		RunE: runView,
	}

	addViewFlags(cmd)
	return cmd
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("raw", false, "Output tab-separated rows (for piping)")
	cmd.Flags().Bool("json", false, "Output rows as a JSON array")
	cmd.Flags().Bool("no-pager", false, "Disable the interactive grid")
	cmd.Flags().StringArray("filter", nil, "Filter as column:kind=value (repeatable)")
}

func runView(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noPager, _ := cmd.Flags().GetBool("no-pager")
	specs, _ := cmd.Flags().GetStringArray("filter")

	opts := grid.DisplayOptions{JSON: jsonOutput, Raw: raw, NoPager: noPager}
	interactive := grid.Interactive(os.Stdout, opts)

	if len(args) == 0 && !interactive {
		return cmd.Help()
	}

	s, err := startSession(cmd, interactive)
	if err != nil {
		return err
	}
	defer s.end()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if interactive {
		// Columns are only known once loaded; syntax is checked now
		preds, err := parseFilters(specs, nil)
		if err != nil {
			return err
		}
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return grid.Run(ctx, app.New(s.appOptions()), grid.Options{
			Path:      path,
			ChunkSize: s.cfg.Parse.ChunkSize,
			CellWidth: s.cfg.View.CellWidth,
			Runner:    s.runner,
			Logger:    s.log,
			Filters:   preds,
		})
	}

	st, err := s.load(ctx, args[0], specs)
	if err != nil {
		return err
	}
	ds := st.Dataset()
	return grid.Print(os.Stdout, ds.Headers, ds.Rows(st.View()), opts)
}
