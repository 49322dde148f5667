package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/ui/grid"
	"github.com/imgajeed76/csvview/internal/ui/styles"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Show the inferred column types of a file",
		Long: `Show every column with its inferred type and a short profile: how many
cells are filled, how many distinct values there are, the numeric range
and the values of category columns.

Types are inferred from the first infer.sample_size rows (see csvview
config); the profile covers every row.`,
		Args: cobra.ExactArgs(1),
		RunE: runSchema,
	}

	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}

// columnSchema is one column in the JSON output.
type columnSchema struct {
	Column     string   `json:"column"`
	Letter     string   `json:"letter"`
	Type       string   `json:"type"`
	NonEmpty   int      `json:"non_empty"`
	Distinct   int      `json:"distinct"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

func runSchema(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := startSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.end()

	st, err := s.load(context.Background(), args[0], nil)
	if err != nil {
		return err
	}
	ds := st.Dataset()
	in := st.Inferencer()

	cols := make([]columnSchema, len(ds.Headers))
	for i, h := range ds.Headers {
		p := in.Profile(h)
		cols[i] = columnSchema{
			Column:     h,
			Letter:     dataset.ColumnLetter(i),
			Type:       p.Type.String(),
			NonEmpty:   p.NonEmpty,
			Distinct:   p.Distinct,
			Categories: p.Categories,
		}
		if !math.IsNaN(p.Min) {
			lo, hi := p.Min, p.Max
			cols[i].Min, cols[i].Max = &lo, &hi
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cols)
	}

	fmt.Printf("%s  %s rows, %d columns, %s delimited\n",
		styles.Boldf("%s", args[0]),
		humanize.Comma(int64(ds.Len())), len(ds.Headers), ds.DelimiterName())
	if n := len(ds.Skipped); n > 0 {
		fmt.Println(styles.WarningMsg(fmt.Sprintf("%s malformed rows skipped", humanize.Comma(int64(n)))))
	}
	fmt.Println()

	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{c.Letter, c.Column, in.Type(c.Column).Label(), humanize.Comma(int64(c.NonEmpty)), humanize.Comma(int64(c.Distinct)), summary(c)}
	}
	return grid.PrintPlainTable(os.Stdout, []string{"", "column", "type", "filled", "distinct", "values"}, rows)
}

// summary is the values column of the schema table.
func summary(c columnSchema) string {
	switch {
	case c.Min != nil:
		return formatNumber(*c.Min) + " … " + formatNumber(*c.Max)
	case len(c.Categories) > 0:
		const shown = 5
		if len(c.Categories) > shown {
			return strings.Join(c.Categories[:shown], ", ") + fmt.Sprintf(", +%d more", len(c.Categories)-shown)
		}
		return strings.Join(c.Categories, ", ")
	}
	return ""
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return humanize.Comma(int64(f))
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}
