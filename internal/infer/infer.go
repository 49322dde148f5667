// Package infer classifies CSV columns as numeric, date, boolean, category or
// text by sampling their values.
//
// Classification rules, first match wins, all over the non-empty sample:
//   - no values                               → text
//   - more than 80% numbers                    → numeric
//   - more than 50% dates                      → date
//   - more than 80% boolean words              → boolean
//   - between 2 and 20 distinct values         → category
//   - anything else                            → text
package infer

import (
	"math"
	"sort"
	"sync"

	"github.com/imgajeed76/csvview/internal/dataset"
)

// ColumnType is the inferred kind of a column.
type ColumnType int

const (
	Text ColumnType = iota
	Numeric
	Date
	Boolean
	Category
)

const (
	numericThreshold = 0.8
	dateThreshold    = 0.5
	booleanThreshold = 0.8
	minCategories    = 2
	maxCategories    = 20

	// DefaultSampleSize is how many leading records are sampled per column.
	DefaultSampleSize = 1000
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	case Category:
		return "category"
	default:
		return "text"
	}
}

// Label is the short name shown next to a column in the UI.
func (t ColumnType) Label() string {
	switch t {
	case Numeric:
		return "Number"
	case Date:
		return "Date"
	case Boolean:
		return "Yes/No"
	case Category:
		return "Category"
	default:
		return "Text"
	}
}

// Classify returns the type of a column from its sampled values.
func Classify(values []string) ColumnType {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return Text
	}

	n := float64(len(nonEmpty))
	if float64(count(nonEmpty, IsNumber))/n > numericThreshold {
		return Numeric
	}
	if float64(count(nonEmpty, IsDate))/n > dateThreshold {
		return Date
	}
	if float64(count(nonEmpty, IsBoolean))/n > booleanThreshold {
		return Boolean
	}

	distinct := make(map[string]struct{}, maxCategories+1)
	for _, v := range nonEmpty {
		distinct[v] = struct{}{}
		if len(distinct) > maxCategories {
			return Text
		}
	}
	if len(distinct) >= minCategories {
		return Category
	}
	return Text
}

func count(values []string, pred func(string) bool) int {
	n := 0
	for _, v := range values {
		if pred(v) {
			n++
		}
	}
	return n
}

// Profile summarizes one column for filter hints and the schema listing.
type Profile struct {
	Column   string
	Type     ColumnType
	NonEmpty int
	Distinct int

	// Min and Max are set for numeric columns over every parseable value.
	Min, Max float64

	// Categories holds the sorted distinct values of category and boolean columns.
	Categories []string
}

// Inferencer memoizes column types for one Dataset. Create a new one for
// every loaded Dataset; it is safe for concurrent use.
type Inferencer struct {
	ds         *dataset.Dataset
	sampleSize int

	mu       sync.Mutex
	types    map[string]ColumnType
	profiles map[string]*Profile
}

// New returns an Inferencer sampling the first sampleSize records of ds.
// A sampleSize of zero or less samples every record.
func New(ds *dataset.Dataset, sampleSize int) *Inferencer {
	return &Inferencer{
		ds:         ds,
		sampleSize: sampleSize,
		types:      make(map[string]ColumnType),
		profiles:   make(map[string]*Profile),
	}
}

// Dataset returns the Dataset this Inferencer belongs to.
func (in *Inferencer) Dataset() *dataset.Dataset {
	return in.ds
}

// Type returns the memoized type of column.
func (in *Inferencer) Type(column string) ColumnType {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.typeLocked(column)
}

func (in *Inferencer) typeLocked(column string) ColumnType {
	if t, ok := in.types[column]; ok {
		return t
	}
	t := Classify(in.sample(column))
	in.types[column] = t
	return t
}

// Types returns the type of every column in header order.
func (in *Inferencer) Types() []ColumnType {
	in.mu.Lock()
	defer in.mu.Unlock()
	types := make([]ColumnType, len(in.ds.Headers))
	for i, h := range in.ds.Headers {
		types[i] = in.typeLocked(h)
	}
	return types
}

func (in *Inferencer) sample(column string) []string {
	n := len(in.ds.Records)
	if in.sampleSize > 0 && in.sampleSize < n {
		n = in.sampleSize
	}
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = in.ds.Records[i][column]
	}
	return values
}

// Profile returns the memoized profile of column. Counts and ranges cover
// every record; only the type comes from the sample.
func (in *Inferencer) Profile(column string) Profile {
	in.mu.Lock()
	defer in.mu.Unlock()

	if p, ok := in.profiles[column]; ok {
		return p.clone()
	}

	p := &Profile{
		Column: column,
		Type:   in.typeLocked(column),
		Min:    math.NaN(),
		Max:    math.NaN(),
	}
	distinct := make(map[string]struct{})
	for _, rec := range in.ds.Records {
		v := rec[column]
		if v == "" {
			continue
		}
		p.NonEmpty++
		distinct[v] = struct{}{}

		if p.Type == Numeric && IsNumber(v) {
			f := LeadingFloat(v)
			if math.IsNaN(p.Min) || f < p.Min {
				p.Min = f
			}
			if math.IsNaN(p.Max) || f > p.Max {
				p.Max = f
			}
		}
	}
	p.Distinct = len(distinct)

	if p.Type == Category || p.Type == Boolean {
		p.Categories = make([]string, 0, len(distinct))
		for v := range distinct {
			p.Categories = append(p.Categories, v)
		}
		sort.Strings(p.Categories)
	}

	in.profiles[column] = p
	return p.clone()
}

// clone copies p so callers cannot reach the memoized categories.
func (p *Profile) clone() Profile {
	out := *p
	if p.Categories != nil {
		out.Categories = append([]string(nil), p.Categories...)
	}
	return out
}
