package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.View.Overscan != 5 || cfg.View.RowHeight != 1 || cfg.View.CellWidth != 20 {
		t.Fatalf("view defaults = %+v", cfg.View)
	}
	if cfg.Filter.DebounceMS != 300 || cfg.Filter.BackgroundThreshold != 10000 {
		t.Fatalf("filter defaults = %+v", cfg.Filter)
	}
	if cfg.Parse.ChunkSize != 1000 || cfg.Infer.SampleSize != 1000 || cfg.Export.ChunkRows != 5000 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Parse.ChunkSize != 1000 {
		t.Fatalf("chunk size = %d", cfg.Parse.ChunkSize)
	}
}

func TestLoadFile_PartialAndInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[filter]\ndebounce_ms = 500\n\n[parse]\nchunk_size = 0\n\n[push]\nurl = \"postgres://localhost/csv\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Filter.DebounceMS != 500 {
		t.Fatalf("debounce = %d, want 500", cfg.Filter.DebounceMS)
	}
	if cfg.Parse.ChunkSize != 1000 {
		t.Fatalf("invalid chunk size should fall back to default, got %d", cfg.Parse.ChunkSize)
	}
	if cfg.View.Overscan != 5 {
		t.Fatalf("absent key lost its default: %d", cfg.View.Overscan)
	}
	if cfg.Push.URL != "postgres://localhost/csv" {
		t.Fatalf("url = %q", cfg.Push.URL)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[view\noverscan = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	if err := cfg.SetValue("view.overscan", "12"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if again.View.Overscan != 12 {
		t.Fatalf("overscan = %d, want 12", again.View.Overscan)
	}
}

func TestSetValue_Validation(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.SetValue("filter.debounce_ms", "100"); err == nil {
		t.Fatal("debounce below 300ms should be rejected")
	}
	if err := cfg.SetValue("filter.workers", "-1"); err == nil {
		t.Fatal("negative workers should be rejected")
	}
	if err := cfg.SetValue("filter.workers", "0"); err != nil {
		t.Fatalf("zero workers is allowed: %v", err)
	}
	if err := cfg.SetValue("view.overscan", "lots"); err == nil {
		t.Fatal("non-integer should be rejected")
	}
	if err := cfg.SetValue("nope.key", "1"); err == nil {
		t.Fatal("unknown key should be rejected")
	}

	if err := cfg.SetValue("filter.debounce", "750"); err != nil {
		t.Fatalf("alias: %v", err)
	}
	if v, ok := cfg.GetValue("filter.debounce_ms"); !ok || v != "750" {
		t.Fatalf("GetValue = %q, %v", v, ok)
	}
}

func TestListKeysAndHelp(t *testing.T) {
	keys := ListKeys()
	want := []string{
		"export.chunk_rows", "export.workers",
		"filter.background_threshold", "filter.debounce_ms", "filter.workers",
		"infer.sample_size", "parse.chunk_size", "push.url",
		"view.cell_width", "view.overscan", "view.row_height",
	}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v", keys)
	}

	help := GenerateHelpText()
	if !strings.Contains(help, "filter.debounce_ms") || !strings.Contains(help, "(default: 300)") {
		t.Fatalf("help text missing entries:\n%s", help)
	}
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	if got := Path(); got != "/tmp/custom.toml" {
		t.Fatalf("Path = %q", got)
	}
}

func TestDatabaseURL_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Push.URL = "postgres://file"
	t.Setenv(EnvDatabaseURL, "")
	if got := cfg.DatabaseURL(); got != "postgres://file" {
		t.Fatalf("got %q", got)
	}
	t.Setenv(EnvDatabaseURL, "postgres://env")
	if got := cfg.DatabaseURL(); got != "postgres://env" {
		t.Fatalf("got %q", got)
	}
}
