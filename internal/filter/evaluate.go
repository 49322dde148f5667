package filter

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/infer"
)

// DefaultBackgroundThreshold is the record count above which callers should
// prefer EvaluateParallel on a background task.
const DefaultBackgroundThreshold = 10000

// cancelCheckEvery is how many records a worker scans between context checks.
const cancelCheckEvery = 4096

type predicate func(value string) bool

type columnPredicates struct {
	column string
	preds  []predicate
}

// compile turns a Set into predicates with their operands parsed once.
func compile(set Set) []columnPredicates {
	out := make([]columnPredicates, 0, len(set.cols))
	for _, col := range set.Columns() {
		cp := columnPredicates{column: col}
		for kind, value := range set.cols[col] {
			if p := compilePredicate(kind, value); p != nil {
				cp.preds = append(cp.preds, p)
			}
		}
		out = append(out, cp)
	}
	return out
}

// compilePredicate returns nil for unknown kinds, which therefore pass.
func compilePredicate(kind Kind, operand string) predicate {
	switch kind {
	case Contains:
		needle := strings.ToLower(operand)
		return func(v string) bool {
			return strings.Contains(strings.ToLower(v), needle)
		}

	case Min:
		bound := infer.LeadingFloat(operand)
		return func(v string) bool {
			// NaN on either side compares false
			return infer.LeadingFloat(v) >= bound
		}

	case Max:
		bound := infer.LeadingFloat(operand)
		return func(v string) bool {
			return infer.LeadingFloat(v) <= bound
		}

	case Start:
		bound, ok := infer.ParseDate(operand)
		return func(v string) bool {
			t, vok := infer.ParseDate(v)
			return ok && vok && !t.Before(bound)
		}

	case End:
		bound, ok := infer.ParseDate(operand)
		return func(v string) bool {
			t, vok := infer.ParseDate(v)
			return ok && vok && !t.After(bound)
		}

	case Value:
		want := strings.ToLower(operand)
		return func(v string) bool {
			return strings.ToLower(v) == want
		}
	}
	return nil
}

func matches(rec dataset.Record, compiled []columnPredicates) bool {
	for _, cp := range compiled {
		v := rec[cp.column]
		for _, p := range cp.preds {
			if !p(v) {
				return false
			}
		}
	}
	return true
}

// Evaluate returns the indices of the records of ds that pass every predicate
// in set, in dataset order. With no predicates it returns every index.
func Evaluate(ds *dataset.Dataset, set Set) []int {
	compiled := compile(set)
	view := make([]int, 0, ds.Len())
	for i, rec := range ds.Records {
		if matches(rec, compiled) {
			view = append(view, i)
		}
	}
	return view
}

// EvaluateParallel computes the same view as Evaluate by splitting the
// records into contiguous chunks scanned concurrently. Output order and
// content are identical to Evaluate. A workers value of zero or less uses
// GOMAXPROCS.
func EvaluateParallel(ctx context.Context, ds *dataset.Dataset, set Set, workers int) ([]int, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := ds.Len()
	if workers == 1 || n < 2*workers {
		return Evaluate(ds, set), nil
	}

	compiled := compile(set)
	chunk := (n + workers - 1) / workers
	parts := make([][]int, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			part := make([]int, 0, end-start)
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckEvery == 0 && ctx.Err() != nil {
					return
				}
				if matches(ds.Records[i], compiled) {
					part = append(part, i)
				}
			}
			parts[w] = part
		}(w, start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	view := make([]int, 0, total)
	for _, p := range parts {
		view = append(view, p...)
	}
	return view, nil
}
