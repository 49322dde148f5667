package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/imgajeed76/csvview/internal/dataset"
	"github.com/imgajeed76/csvview/internal/export"
	"github.com/imgajeed76/csvview/internal/filter"
	"github.com/imgajeed76/csvview/internal/util"
)

const peopleCSV = "name,age,city\nAna,30,Recife\nBruno,45,Natal\nCarla,28,recife\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseFilters(t *testing.T) {
	preds, err := parseFilters([]string{"age:min=30", "city:value=a:b=c"}, []string{"name", "age", "city"})
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predicates, want 2", len(preds))
	}
	if preds[0].Column != "age" || preds[0].Kind != filter.Min || preds[0].Value != "30" {
		t.Fatalf("first predicate = %+v", preds[0])
	}
	if preds[1].Value != "a:b=c" {
		t.Fatalf("value = %q, want everything after the first '='", preds[1].Value)
	}
}

func TestParseFilters_InvalidSpec(t *testing.T) {
	_, err := parseFilters([]string{"age>30"}, nil)
	var structured *util.Error
	if !errors.As(err, &structured) {
		t.Fatalf("err = %v, want *util.Error", err)
	}
	if !strings.HasPrefix(structured.Title, "Invalid filter") {
		t.Fatalf("title = %q", structured.Title)
	}
}

func TestParseFilters_UnknownColumn(t *testing.T) {
	_, err := parseFilters([]string{"salary:min=1"}, []string{"name", "age"})
	var structured *util.Error
	if !errors.As(err, &structured) {
		t.Fatalf("err = %v, want *util.Error", err)
	}
	if structured.Title != "Column 'salary' not found" {
		t.Fatalf("title = %q", structured.Title)
	}

	// Without headers only the syntax is checked
	if _, err := parseFilters([]string{"salary:min=1"}, nil); err != nil {
		t.Fatalf("parseFilters without headers: %v", err)
	}
}

func TestLoadError(t *testing.T) {
	tests := []struct {
		err   error
		title string
	}{
		{fs.ErrNotExist, "File not found: x.csv"},
		{fs.ErrPermission, "Permission denied: x.csv"},
		{dataset.ErrEmptyFile, "The file is empty"},
		{dataset.ErrHeaderOnly, "The file has a header row but no data"},
		{fmt.Errorf("parse: %w", dataset.ErrNoDataRows), "No valid data rows found"},
		{errors.New("boom"), "Cannot read x.csv"},
	}

	for _, tt := range tests {
		err := LoadError("x.csv", tt.err)
		var structured *util.Error
		if !errors.As(err, &structured) {
			t.Fatalf("LoadError(%v) = %v, want *util.Error", tt.err, err)
		}
		if structured.Title != tt.title {
			t.Errorf("LoadError(%v) title = %q, want %q", tt.err, structured.Title, tt.title)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("LoadError(%v) does not wrap the cause", tt.err)
		}
	}
}

func TestLoadError_CanceledPassesThrough(t *testing.T) {
	if err := LoadError("x.csv", context.Canceled); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("out.json", ".json"); got != "out.json" {
		t.Fatalf("explicit path = %q", got)
	}
	got := outputPath("", ".db")
	want := strings.TrimSuffix(export.FileName(time.Now()), ".csv") + ".db"
	if got != want {
		t.Fatalf("default path = %q, want %q", got, want)
	}
}

func TestDefaultTable(t *testing.T) {
	if got := defaultTable("/data/Sales 2024.csv"); got != "sales_2024" {
		t.Fatalf("defaultTable = %q", got)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://bob:secret@db:5432/app", "postgres://bob:***@db:5432/app"},
		{"postgres://bob@db/app", "postgres://bob@db/app"},
		{"postgres://db/app", "postgres://db/app"},
		{"host=db user=bob", "host=db user=bob"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	lo, hi := 2.0, 1234.5
	if got := summary(columnSchema{Min: &lo, Max: &hi}); got != "2 … 1234.5" {
		t.Fatalf("numeric summary = %q", got)
	}
	got := summary(columnSchema{Categories: []string{"a", "b", "c", "d", "e", "f", "g"}})
	if got != "a, b, c, d, e, +2 more" {
		t.Fatalf("category summary = %q", got)
	}
	if got := summary(columnSchema{}); got != "" {
		t.Fatalf("text summary = %q", got)
	}
}

func TestSessionLoad_AppliesFilters(t *testing.T) {
	t.Setenv("CSVVIEW_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	path := writeCSV(t, peopleCSV)

	cmd := newExportCmd()
	s, err := startSession(cmd, false)
	if err != nil {
		t.Fatalf("startSession: %v", err)
	}
	defer s.end()

	st, err := s.load(context.Background(), path, []string{"city:value=RECIFE"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	view := st.View()
	if len(view) != 2 || view[0] != 0 || view[1] != 2 {
		t.Fatalf("view = %v, want [0 2]", view)
	}

	if _, err := s.load(context.Background(), path, []string{"salary:min=1"}); err == nil {
		t.Fatal("expected unknown column error")
	}
}

func TestExportCommand_CSV(t *testing.T) {
	t.Setenv("CSVVIEW_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	path := writeCSV(t, peopleCSV)
	out := filepath.Join(t.TempDir(), "out.csv")

	cmd := newExportCmd()
	cmd.SetArgs([]string{path, "-o", out, "--filter", "age:max=30"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := export.BOM + `"name","age","city"` + "\n" +
		`"Ana","30","Recife"` + "\n" +
		`"Carla","28","recife"`
	if string(data) != want {
		t.Fatalf("output =\n%q\nwant\n%q", data, want)
	}
}

func TestExportCommand_UnknownFormat(t *testing.T) {
	cmd := newExportCmd()
	cmd.SetArgs([]string{"x.csv", "--format", "xlsx"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	var structured *util.Error
	if !errors.As(err, &structured) || structured.Title != "Unknown format: xlsx" {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigCommand_SetAndGet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("CSVVIEW_CONFIG", cfgPath)

	cmd := newConfigCmd()
	cmd.SetArgs([]string{"view.cell_width", "32"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config set: %v", err)
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	if !strings.Contains(string(data), "cell_width = 32") {
		t.Fatalf("config file =\n%s", data)
	}

	cmd = newConfigCmd()
	cmd.SetArgs([]string{"view.cell_width", "1"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected out-of-range value to fail")
	}

	cmd = newConfigCmd()
	cmd.SetArgs([]string{"nope.key"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestParseBar_FinishesOnFailure(t *testing.T) {
	b := &parseBar{label: "Parsing x.csv", show: true}
	b.update(dataset.Progress{Processed: 1000, Total: 4000})
	if b.bar == nil {
		t.Fatal("bar should start with the first chunk")
	}

	b.finish(dataset.ErrNoDataRows)
	if b.bar != nil {
		t.Fatal("a failed parse must still finish the bar")
	}
	b.finish(nil) // no bar left: no-op
}

func TestParseBar_HiddenForSmallFiles(t *testing.T) {
	b := &parseBar{label: "Parsing x.csv"}
	b.update(dataset.Progress{Processed: 1, Total: 2})
	if b.bar != nil {
		t.Fatal("small files show no bar")
	}
	b.finish(nil)
}
