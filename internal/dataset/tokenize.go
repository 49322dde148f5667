package dataset

import (
	"strings"
	"unicode"
)

const bom = '\uFEFF'

// DetectDelimiter picks the field separator for a file from its header line.
// Tab wins ties, so a line with neither character is treated as tab-separated.
func DetectDelimiter(line string) rune {
	tabs := strings.Count(line, "\t")
	commas := strings.Count(line, ",")
	if tabs >= commas {
		return '\t'
	}
	return ','
}

// SplitLine splits one line into trimmed fields.
//
// Every double quote toggles the quoted state and is itself dropped; there is
// no escape sequence. A doubled quote inside a quoted field therefore closes
// and reopens the quoted region. Delimiters are literal text while quoted.
// The result always has at least one element.
func SplitLine(line string, delim rune) []string {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, trimField(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(fields, trimField(cur.String()))
}

// trimField strips surrounding whitespace, including a stray byte-order mark.
func trimField(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == bom
	})
}

func isBlank(line string) bool {
	return trimField(line) == ""
}
