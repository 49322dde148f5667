// Package dataset turns raw delimited text into a Dataset: a header row plus
// name-keyed records. It owns delimiter detection, the quote-toggling line
// tokenizer and the chunked parser with its row-length tolerance policy.
//
// A Dataset is immutable once returned. Loading another file produces a new
// Dataset; nothing in this package mutates one in place.
package dataset

import (
	"errors"
	"strconv"
)

var (
	// ErrEmptyFile is returned when the input has no non-blank lines.
	ErrEmptyFile = errors.New("file is empty")
	// ErrHeaderOnly is returned when the input has a header line and nothing else.
	ErrHeaderOnly = errors.New("file contains only a header row")
	// ErrNoDataRows is returned when every data line was dropped by the
	// row-length tolerance policy.
	ErrNoDataRows = errors.New("no data rows could be parsed")
)

// Record is one data row keyed by column name. Missing trailing fields are
// stored as the empty string, so every Record has the Dataset's full key set.
type Record map[string]string

// Get returns the value for column, or "" when the column is unknown.
func (r Record) Get(column string) string {
	return r[column]
}

// SkippedRow describes a data line dropped because its field count was too far
// from the header's.
type SkippedRow struct {
	Line     int // 1-based position among the non-blank lines
	Fields   int
	Expected int
}

// Dataset is the parsed content of one file.
type Dataset struct {
	Headers   []string
	Records   []Record
	Delimiter rune

	// Skipped lists malformed rows that were dropped. Diagnostic only.
	Skipped []SkippedRow

	// Lines is the number of non-blank lines in the source, header included.
	Lines int
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Column returns every value of column in record order.
func (d *Dataset) Column(column string) []string {
	values := make([]string, len(d.Records))
	for i, rec := range d.Records {
		values[i] = rec[column]
	}
	return values
}

// Row returns the values of record i in header order.
func (d *Dataset) Row(i int) []string {
	rec := d.Records[i]
	row := make([]string, len(d.Headers))
	for j, h := range d.Headers {
		row[j] = rec[h]
	}
	return row
}

// Rows returns the given records in header order. A nil view means all records.
func (d *Dataset) Rows(view []int) [][]string {
	if view == nil {
		rows := make([][]string, len(d.Records))
		for i := range d.Records {
			rows[i] = d.Row(i)
		}
		return rows
	}
	rows := make([][]string, len(view))
	for i, idx := range view {
		rows[i] = d.Row(idx)
	}
	return rows
}

// DelimiterName returns a human label for the detected delimiter.
func (d *Dataset) DelimiterName() string {
	if d.Delimiter == '\t' {
		return "tab"
	}
	return "comma"
}

// ColumnLetter returns the spreadsheet letter for a zero-based column index:
// 0 → A, 25 → Z, 26 → AA.
func ColumnLetter(col int) string {
	if col < 0 {
		return ""
	}
	var buf []byte
	for col >= 0 {
		buf = append([]byte{byte('A' + col%26)}, buf...)
		col = col/26 - 1
	}
	return string(buf)
}

// CellRef returns the spreadsheet reference of a data cell. Data row 0 is
// sheet row 2 because row 1 holds the headers.
func CellRef(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row+2)
}
