package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/infer"
	"github.com/imgajeed76/csvview/internal/sink"
	"github.com/imgajeed76/csvview/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// csvview-bench: throughput of the core pipeline on synthetic files
//
// Usage:
//   csvview-bench [rows...] [options]
//
// Generates a deterministic CSV per row count, then times parsing, type
// inference, filtering (sequential and parallel), export (single pass and
// chunked) and the SQLite sink.
// ═══════════════════════════════════════════════════════════════════════════

// isTTY is true when stdout is a terminal and accessibility mode is off
var isTTY bool

func init() {
	isTTY = term.IsTerminal(int(os.Stdout.Fd())) && !styles.IsAccessible()
}

var (
	stBold    = lipgloss.NewStyle().Bold(true)
	stDim     = lipgloss.NewStyle().Foreground(styles.Muted)
	stAccent  = lipgloss.NewStyle().Foreground(styles.Accent)
	stSuccess = lipgloss.NewStyle().Foreground(styles.Success)
	stError   = lipgloss.NewStyle().Foreground(styles.Error)
)

// render applies a lipgloss style, respecting NoColor
func render(s lipgloss.Style, text string) string {
	if styles.NoColor() {
		return text
	}
	return s.Render(text)
}

func main() {
	args := parseArgs()

	var results []benchResult
	for _, rows := range args.rows {
		if !args.jsonMode {
			phaseHeader(humanize.Comma(int64(rows)) + " rows")
		}
		r, err := benchmark(rows, args)
		if err != nil {
			r = benchResult{Rows: rows, Error: err.Error()}
			if !args.jsonMode {
				fmt.Printf("  %s\n", render(stError, err.Error()))
			}
		}
		results = append(results, r)
	}

	if args.jsonMode {
		writeJSONOutput(results, args.jsonPath)
	} else {
		printSummaryTable(results)
	}

	if args.reportPath != "" {
		if err := writeMarkdownReport(args.reportPath, results); err != nil {
			fatalMsg("Failed to write report: %v", err)
		}
		if !args.jsonMode {
			fmt.Printf("  %s\n\n", styles.SuccessMsg(fmt.Sprintf("Report written to %s", args.reportPath)))
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Results
// ═══════════════════════════════════════════════════════════════════════════

type phase struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
	Result  string  `json:"result"`
}

type benchResult struct {
	Rows      int     `json:"rows"`
	Bytes     int     `json:"bytes"`
	Workers   int     `json:"workers"`
	Timestamp string  `json:"timestamp"`
	Phases    []phase `json:"phases"`

	// RowsPerSecond is the parse throughput.
	RowsPerSecond float64 `json:"rows_per_second"`

	Error string `json:"error,omitempty"`
}

func (r benchResult) phase(name string) (phase, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return phase{}, false
}

// ═══════════════════════════════════════════════════════════════════════════
// Argument parsing
// ═══════════════════════════════════════════════════════════════════════════

type cliArgs struct {
	rows       []int
	workers    int
	seed       int64
	jsonMode   bool
	jsonPath   string // "" = stdout
	reportPath string
	keep       bool
}

func parseArgs() cliArgs {
	args := cliArgs{seed: 1}
	osArgs := os.Args[1:]

	for i := 0; i < len(osArgs); i++ {
		switch osArgs[i] {
		case "--workers", "-w":
			if i+1 < len(osArgs) {
				i++
				n, err := strconv.Atoi(osArgs[i])
				if err != nil || n < 0 {
					fatalMsg("--workers requires a non-negative integer, got: %s", osArgs[i])
				}
				args.workers = n
			}
		case "--seed":
			if i+1 < len(osArgs) {
				i++
				n, err := strconv.ParseInt(osArgs[i], 10, 64)
				if err != nil {
					fatalMsg("--seed requires an integer, got: %s", osArgs[i])
				}
				args.seed = n
			}
		case "--json", "-j":
			args.jsonMode = true
			// Check if next arg is a path (not a flag, not a row count)
			if i+1 < len(osArgs) && !strings.HasPrefix(osArgs[i+1], "-") {
				if _, err := parseCount(osArgs[i+1]); err != nil {
					i++
					args.jsonPath = osArgs[i]
				}
			}
		case "--report", "-r":
			if i+1 < len(osArgs) {
				i++
				args.reportPath = osArgs[i]
			}
		case "--keep":
			args.keep = true
		case "--no-color":
			styles.SetNoColor(true)
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			if strings.HasPrefix(osArgs[i], "-") {
				fatalMsg("Unknown option: %s", osArgs[i])
			}
			n, err := parseCount(osArgs[i])
			if err != nil {
				fatalMsg("Invalid row count: %s", osArgs[i])
			}
			args.rows = append(args.rows, n)
		}
	}

	if len(args.rows) == 0 {
		args.rows = []int{10_000, 100_000, 1_000_000}
	}
	return args
}

// parseCount accepts plain numbers and k/m suffixes: 500, 50k, 2m.
func parseCount(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	mult := 1
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, "_", ""))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n * mult, nil
}

func printUsage() {
	fmt.Printf(`%s - Throughput benchmark for the csvview core

%s
  csvview-bench [rows...] [options]

%s
  --workers, -w <n>       Parallel filter/export workers (default: one per CPU)
  --seed <n>              Seed for the generated data (default: 1)
  --report, -r <path>     Write a markdown report
  --json, -j [path]       JSON output (file path or stdout if omitted)
  --keep                  Keep the generated files
  --no-color              Disable colored output
  --help, -h              Show this help

%s
  csvview-bench
  csvview-bench 50k 500k --report bench.md
  csvview-bench 2m --workers 4 --json results.json

`,
		render(stBold, "csvview-bench"),
		render(stBold, "Usage:"),
		render(stBold, "Options:"),
		render(stBold, "Examples:"))
}

// ═══════════════════════════════════════════════════════════════════════════
// Benchmark pipeline
// ═══════════════════════════════════════════════════════════════════════════

var cities = []string{"Recife", "Natal", "Olinda", "Salvador", "Fortaleza", "Maceió", "João Pessoa", "Aracaju"}

// generate writes a deterministic CSV with one column of every inferred type.
func generate(rows int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var sb strings.Builder
	sb.Grow(rows * 64)
	sb.WriteString("id,name,city,price,active,joined,notes\n")

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "%d,customer %d,%s,%.2f,%t,%s,\"note %d, batch %d\"\n",
			i+1,
			rng.Intn(rows),
			cities[rng.Intn(len(cities))],
			rng.Float64()*1000,
			rng.Intn(2) == 0,
			base.AddDate(0, 0, rng.Intn(1500)).Format("2006-01-02"),
			i, i%97)
	}
	return sb.String()
}

func benchmark(rows int, args cliArgs) (benchResult, error) {
	ctx := context.Background()
	r := benchResult{
		Rows:      rows,
		Workers:   args.workers,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	timed := func(name string, fn func() (string, error)) error {
		start := time.Now()
		result, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Phases = append(r.Phases, phase{Name: name, Seconds: elapsed.Seconds(), Result: result})
		if !args.jsonMode {
			fmt.Printf("  %-18s %10s  %s\n", name, formatDuration(elapsed), render(stDim, result))
		}
		return nil
	}

	var text string
	if err := timed("generate", func() (string, error) {
		text = generate(rows, args.seed)
		return humanize.Bytes(uint64(len(text))), nil
	}); err != nil {
		return r, err
	}
	r.Bytes = len(text)

	dir, err := os.MkdirTemp("", "csvview-bench-")
	if err != nil {
		return r, err
	}
	if args.keep {
		if err := os.WriteFile(filepath.Join(dir, "input.csv"), []byte(text), 0o644); err != nil {
			return r, err
		}
		if !args.jsonMode {
			fmt.Printf("  %-18s %s\n", "files", dir)
		}
	} else {
		defer os.RemoveAll(dir)
	}

	var ds *dataset.Dataset
	if err := timed("parse", func() (string, error) {
		var err error
		ds, err = dataset.NewParser(dataset.Options{}).Parse(ctx, text)
		if err != nil {
			return "", err
		}
		return humanize.Comma(int64(ds.Len())) + " records", nil
	}); err != nil {
		return r, err
	}
	if p, ok := r.phase("parse"); ok && p.Seconds > 0 {
		r.RowsPerSecond = float64(rows) / p.Seconds
	}

	in := infer.New(ds, infer.DefaultSampleSize)
	if err := timed("infer", func() (string, error) {
		labels := make([]string, 0, len(ds.Headers))
		for _, h := range ds.Headers {
			in.Profile(h)
			labels = append(labels, in.Type(h).Label())
		}
		return strings.Join(labels, " "), nil
	}); err != nil {
		return r, err
	}

	var set filter.Set
	set.Put("city", filter.Value, "recife")
	set.Put("price", filter.Min, "250")
	set.Put("notes", filter.Contains, "batch 1")

	var view []int
	if err := timed("filter", func() (string, error) {
		view = filter.Evaluate(ds, set)
		return humanize.Comma(int64(len(view))) + " match", nil
	}); err != nil {
		return r, err
	}
	if err := timed("filter parallel", func() (string, error) {
		v, err := filter.EvaluateParallel(ctx, ds, set, args.workers)
		if err != nil {
			return "", err
		}
		if len(v) != len(view) {
			return "", fmt.Errorf("parallel view has %d rows, sequential %d", len(v), len(view))
		}
		return humanize.Comma(int64(len(v))) + " match", nil
	}); err != nil {
		return r, err
	}

	var single []byte
	if err := timed("export", func() (string, error) {
		single = export.Bytes(ds, nil)
		return humanize.Bytes(uint64(len(single))), nil
	}); err != nil {
		return r, err
	}
	if err := timed("export chunked", func() (string, error) {
		data, err := export.Chunked(ctx, ds, nil, 0, args.workers)
		if err != nil {
			return "", err
		}
		if len(data) != len(single) {
			return "", fmt.Errorf("chunked export is %d bytes, single pass %d", len(data), len(single))
		}
		return humanize.Bytes(uint64(len(data))), nil
	}); err != nil {
		return r, err
	}

	if err := timed("sqlite", func() (string, error) {
		path := filepath.Join(dir, "bench.db")
		tbl := sink.BuildTable("bench", ds, nil, in.Types())
		if err := sink.WriteSQLite(ctx, path, tbl, nil); err != nil {
			return "", err
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		return humanize.Bytes(uint64(info.Size())), nil
	}); err != nil {
		return r, err
	}

	if !args.jsonMode {
		fmt.Printf("  %s\n", render(stSuccess, fmt.Sprintf("%s %s rows/s parsed", styles.SymbolSuccess, humanize.Comma(int64(r.RowsPerSecond)))))
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Output
// ═══════════════════════════════════════════════════════════════════════════

var summaryPhases = []string{"parse", "infer", "filter", "filter parallel", "export", "export chunked", "sqlite"}

func printSummaryTable(results []benchResult) {
	fmt.Println()
	sectionHeader("Summary")
	fmt.Println()

	fmt.Printf("  %10s %9s", "Rows", "Size")
	for _, name := range summaryPhases {
		fmt.Printf(" %9s", shortPhase(name))
	}
	fmt.Println()
	fmt.Printf("  %s\n", render(stDim, strings.Repeat("─", 20+10*len(summaryPhases))))

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("  %10s %s\n", humanize.Comma(int64(r.Rows)), render(stError, r.Error))
			continue
		}
		fmt.Printf("  %10s %9s", humanize.Comma(int64(r.Rows)), humanize.Bytes(uint64(r.Bytes)))
		for _, name := range summaryPhases {
			p, _ := r.phase(name)
			fmt.Printf(" %9s", formatDuration(time.Duration(p.Seconds*float64(time.Second))))
		}
		fmt.Println()
	}
	fmt.Println()
}

func shortPhase(name string) string {
	switch name {
	case "filter parallel":
		return "filter ∥"
	case "export chunked":
		return "export ∥"
	}
	return name
}

func writeJSONOutput(results []benchResult, path string) {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		var err error
		w, err = os.Create(path)
		if err != nil {
			fatalMsg("Failed to create JSON file: %v", err)
		}
		defer w.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(results) == 1 {
		_ = enc.Encode(results[0])
	} else {
		_ = enc.Encode(results)
	}
}

func writeMarkdownReport(path string, results []benchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	p := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("# csvview-bench Report")
	p("")
	p("**Date:** %s", time.Now().Format("2006-01-02 15:04:05"))
	p("")
	p("## Timings")
	p("")

	header := "| Rows | Size |"
	align := "|-----:|-----:|"
	for _, name := range summaryPhases {
		header += " " + name + " |"
		align += "------:|"
	}
	p("%s", header)
	p("%s", align)

	for _, r := range results {
		if r.Error != "" {
			p("| %s | failed: %s |", humanize.Comma(int64(r.Rows)), r.Error)
			continue
		}
		line := fmt.Sprintf("| %s | %s |", humanize.Comma(int64(r.Rows)), humanize.Bytes(uint64(r.Bytes)))
		for _, name := range summaryPhases {
			ph, _ := r.phase(name)
			line += " " + formatDuration(time.Duration(ph.Seconds*float64(time.Second))) + " |"
		}
		p("%s", line)
	}

	p("")
	p("## Parse throughput")
	p("")
	for _, r := range results {
		if r.Error == "" {
			p("- %s rows: %s rows/s", humanize.Comma(int64(r.Rows)), humanize.Comma(int64(r.RowsPerSecond)))
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Terminal output helpers
// ═══════════════════════════════════════════════════════════════════════════

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func phaseHeader(title string) {
	if !isTTY {
		fmt.Printf("\n-- %s --\n\n", title)
		return
	}
	fmt.Printf("\n%s %s %s\n\n",
		render(stAccent, "──"),
		render(stBold, title),
		render(stAccent, "──"))
}

func sectionHeader(title string) {
	fmt.Printf("  %s\n", render(stBold, title))
}

func fatalMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "\n  %s\n\n", styles.ErrorMsg(msg))
	os.Exit(1)
}
