// Package sink loads a filtered view into a database table: a SQLite file
// for offline analysis, or a PostgreSQL table for sharing.
//
// Columns inferred as numeric become floating-point columns and boolean
// columns become booleans, with empty cells stored as NULL. Types are inferred
// from a sample, so a column falls back to text when any cell of the view does
// not convert; every text column is stored exactly as shown.
package sink

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/infer"
)

// Kind is the storage class of a column.
type Kind int

const (
	KindText Kind = iota
	KindReal
	KindBool
)

// Column is one table column mapped from a dataset header.
type Column struct {
	Name   string // sanitized, unique identifier
	Header string // original header
	Kind   Kind
}

// Table is a view of a dataset shaped for insertion. Values are produced on
// demand; nothing is copied.
type Table struct {
	Name    string
	Columns []Column

	ds   *dataset.Dataset
	view []int
}

// BuildTable maps the view of ds to a table called name. types holds one
// inferred type per header, as returned by infer.Inferencer.Types. A nil
// view includes every record.
func BuildTable(name string, ds *dataset.Dataset, view []int, types []infer.ColumnType) *Table {
	if view == nil {
		view = make([]int, ds.Len())
		for i := range view {
			view[i] = i
		}
	}

	seen := make(map[string]int, len(ds.Headers))
	cols := make([]Column, len(ds.Headers))
	for i, h := range ds.Headers {
		kind := KindText
		if i < len(types) {
			switch types[i] {
			case infer.Numeric:
				kind = KindReal
			case infer.Boolean:
				kind = KindBool
			}
		}
		if kind != KindText && !convertsAll(ds, view, h, kind) {
			kind = KindText
		}
		cols[i] = Column{Name: uniqueIdent(Ident(h), seen), Header: h, Kind: kind}
	}

	return &Table{
		Name:    Ident(name),
		Columns: cols,
		ds:      ds,
		view:    view,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.view)
}

// ColumnNames returns the column identifiers in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Values returns row i converted to its column kinds. NULL cells are nil.
func (t *Table) Values(i int) []any {
	rec := t.ds.Records[t.view[i]]
	vals := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		vals[j] = convert(rec[c.Header], c.Kind)
	}
	return vals
}

// convertsAll reports whether every non-empty cell of column in the view
// converts to kind.
func convertsAll(ds *dataset.Dataset, view []int, column string, kind Kind) bool {
	for _, idx := range view {
		v := ds.Records[idx][column]
		if v != "" && convert(v, kind) == nil {
			return false
		}
	}
	return true
}

func convert(v string, kind Kind) any {
	switch kind {
	case KindReal:
		f, ok := numberValue(v)
		if !ok {
			return nil
		}
		return f
	case KindBool:
		if !infer.IsBoolean(v) {
			return nil
		}
		return infer.IsTruthy(v)
	}
	return v
}

// numberValue parses a cell the way the inferencer recognizes numbers.
func numberValue(v string) (float64, bool) {
	if !infer.IsNumber(v) {
		return 0, false
	}
	s := strings.TrimSpace(v)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	f := infer.LeadingFloat(s)
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Ident turns a header into a SQL identifier: lowercase letters, digits and
// underscores, not starting with a digit.
func Ident(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	id := strings.Trim(b.String(), "_")
	if id == "" {
		return "column"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "c_" + id
	}
	return id
}

// uniqueIdent suffixes repeated identifiers: name, name_2, name_3.
func uniqueIdent(id string, seen map[string]int) string {
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
	}
}

// quote wraps an identifier in double quotes for SQL.
func quote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
