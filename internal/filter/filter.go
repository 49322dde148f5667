// Package filter holds per-column predicates and evaluates them against a
// Dataset to produce a filtered view.
//
// A view is a slice of record indices in dataset order. Every active predicate
// of every column must pass for a record to be kept.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/imgajeed76/csvview/internal/infer"
)

// Kind is how a predicate value is compared with a column value.
type Kind string

const (
	Contains Kind = "contains" // case-insensitive substring
	Min      Kind = "min"      // numeric, inclusive
	Max      Kind = "max"      // numeric, inclusive
	Start    Kind = "start"    // date, inclusive
	End      Kind = "end"      // date, inclusive
	Value    Kind = "value"    // case-insensitive equality
)

// Kinds lists the known predicate kinds.
var Kinds = []Kind{Contains, Min, Max, Start, End, Value}

// ParseKind validates a predicate kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown predicate kind %q (want one of contains, min, max, start, end, value)", s)
}

// KindsFor returns the primary and secondary predicate kinds that fit a
// column type. Secondary is empty when the type has only one control.
func KindsFor(t infer.ColumnType) (primary, secondary Kind) {
	switch t {
	case infer.Numeric:
		return Min, Max
	case infer.Date:
		return Start, End
	case infer.Boolean, infer.Category:
		return Value, ""
	default:
		return Contains, ""
	}
}

// Set maps column → kind → value. A column is present only while it has at
// least one predicate. The zero value is an empty, usable Set.
type Set struct {
	cols map[string]map[Kind]string
}

// Put sets the predicate kind on column to value. An empty value removes the
// predicate, and the column entry with it when it was the last one.
func (s *Set) Put(column string, kind Kind, value string) {
	if value == "" {
		preds, ok := s.cols[column]
		if !ok {
			return
		}
		delete(preds, kind)
		if len(preds) == 0 {
			delete(s.cols, column)
		}
		return
	}

	if s.cols == nil {
		s.cols = make(map[string]map[Kind]string)
	}
	preds, ok := s.cols[column]
	if !ok {
		preds = make(map[Kind]string)
		s.cols[column] = preds
	}
	preds[kind] = value
}

// Get returns the value of one predicate.
func (s Set) Get(column string, kind Kind) (string, bool) {
	v, ok := s.cols[column][kind]
	return v, ok
}

// Column returns a copy of the predicates on column.
func (s Set) Column(column string) map[Kind]string {
	preds, ok := s.cols[column]
	if !ok {
		return nil
	}
	out := make(map[Kind]string, len(preds))
	for k, v := range preds {
		out[k] = v
	}
	return out
}

// Has reports whether column has any predicate.
func (s Set) Has(column string) bool {
	_, ok := s.cols[column]
	return ok
}

// Len returns the number of filtered columns.
func (s Set) Len() int {
	return len(s.cols)
}

// Columns returns the filtered column names, sorted.
func (s Set) Columns() []string {
	names := make([]string, 0, len(s.cols))
	for name := range s.cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearColumn removes every predicate on column.
func (s *Set) ClearColumn(column string) {
	delete(s.cols, column)
}

// Clear removes every predicate.
func (s *Set) Clear() {
	s.cols = nil
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	if s.cols == nil {
		return Set{}
	}
	out := Set{cols: make(map[string]map[Kind]string, len(s.cols))}
	for col, preds := range s.cols {
		cp := make(map[Kind]string, len(preds))
		for k, v := range preds {
			cp[k] = v
		}
		out.cols[col] = cp
	}
	return out
}

// String renders the set as "col kind=value; …" in a stable order.
func (s Set) String() string {
	var parts []string
	for _, col := range s.Columns() {
		preds := s.cols[col]
		for _, k := range Kinds {
			if v, ok := preds[k]; ok {
				parts = append(parts, fmt.Sprintf("%s %s=%s", col, k, v))
			}
		}
	}
	return strings.Join(parts, "; ")
}

// ParseSpec parses a "column:kind=value" filter flag. The column name may not
// contain ':'; the value may contain anything.
func ParseSpec(spec string) (column string, kind Kind, value string, err error) {
	colon := strings.Index(spec, ":")
	if colon <= 0 {
		return "", "", "", fmt.Errorf("expected column:kind=value")
	}
	column = spec[:colon]
	rest := spec[colon+1:]

	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", "", "", fmt.Errorf("expected column:kind=value")
	}
	kind, err = ParseKind(rest[:eq])
	if err != nil {
		return "", "", "", err
	}
	return column, kind, rest[eq+1:], nil
}
