package grid

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// PrintJSON writes rows as a JSON array of objects. Keys follow header order.
func PrintJSON(w io.Writer, columns []string, rows [][]string) error {
	results := make([]orderedRow, len(rows))
	for i, row := range rows {
		results[i] = orderedRow{columns: columns, values: row}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// orderedRow marshals as an object whose keys keep the header order, which a
// map would lose.
type orderedRow struct {
	columns []string
	values  []string
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		sb.Write(k)
		sb.WriteByte(':')

		var v string
		if i < len(r.values) {
			v = r.values[i]
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		sb.Write(b)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// PrintRaw writes rows as tab-separated lines.
func PrintRaw(w io.Writer, rows [][]string) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		bw.WriteString(strings.Join(row, "\t"))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// PrintPlainTable prints a properly aligned table for non-TTY output.
// Shows full content without truncation.
func PrintPlainTable(w io.Writer, columns []string, rows [][]string) error {
	bw := bufio.NewWriter(w)

	if len(columns) == 0 {
		fmt.Fprintln(bw, "(0 rows)")
		return bw.Flush()
	}

	// Calculate column widths based on actual content (no truncation)
	colWidths := make([]int, len(columns))
	for i, name := range columns {
		colWidths[i] = runewidth.StringWidth(name)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(colWidths) {
				if vw := runewidth.StringWidth(val); vw > colWidths[i] {
					colWidths[i] = vw
				}
			}
		}
	}

	// Print header
	for i, name := range columns {
		if i > 0 {
			bw.WriteString("  ")
		}
		bw.WriteString(pad(name, colWidths[i], i == len(columns)-1))
	}
	bw.WriteByte('\n')

	// Print separator
	for i, cw := range colWidths {
		if i > 0 {
			bw.WriteString("  ")
		}
		bw.WriteString(strings.Repeat("─", cw))
	}
	bw.WriteByte('\n')

	// Print rows (full content, no truncation)
	for _, row := range rows {
		for i, val := range row {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				bw.WriteString("  ")
			}
			bw.WriteString(pad(val, colWidths[i], i == len(row)-1))
		}
		bw.WriteByte('\n')
	}

	bw.WriteByte('\n')
	if len(rows) == 1 {
		bw.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(bw, "(%s rows)\n", humanize.Comma(int64(len(rows))))
	}
	return bw.Flush()
}

// pad adds spaces to reach the desired display width (no truncation). The
// last column is not padded.
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return runewidth.FillRight(s, width)
}
