// Package config loads and saves csvview's user settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Env variables consulted on top of the config file.
const (
	EnvConfigPath  = "CSVVIEW_CONFIG"
	EnvDatabaseURL = "CSVVIEW_DATABASE_URL"
)

// Config represents the user's config.toml
type Config struct {
	View   ViewConfig   `toml:"view"`
	Parse  ParseConfig  `toml:"parse"`
	Infer  InferConfig  `toml:"infer"`
	Filter FilterConfig `toml:"filter"`
	Export ExportConfig `toml:"export"`
	Push   PushConfig   `toml:"push"`
}

// ViewConfig controls the grid layout
type ViewConfig struct {
	Overscan  int `toml:"overscan" config:"view.overscan" default:"5" min:"0" max:"200" desc:"Rows rendered past the visible edge"`
	CellWidth int `toml:"cell_width" config:"view.cell_width" default:"20" min:"4" max:"200" desc:"Display width of a collapsed column"`
	RowHeight int `toml:"row_height" config:"view.row_height" default:"1" min:"1" max:"10" desc:"Terminal lines per scroll step"`
}

// ParseConfig controls file loading
type ParseConfig struct {
	ChunkSize int `toml:"chunk_size" config:"parse.chunk_size" default:"1000" min:"1" max:"1000000" desc:"Lines parsed between progress updates"`
}

// InferConfig controls column type detection
type InferConfig struct {
	SampleSize int `toml:"sample_size" config:"infer.sample_size" default:"1000" min:"1" max:"100000000" desc:"Leading rows sampled per column"`
}

// FilterConfig controls filter evaluation
type FilterConfig struct {
	DebounceMS          int `toml:"debounce_ms" config:"filter.debounce_ms" default:"300" min:"300" max:"10000" desc:"Quiet period before a filter edit applies"`
	BackgroundThreshold int `toml:"background_threshold" config:"filter.background_threshold" default:"10000" min:"1" max:"2147483647" desc:"Rows above which filtering runs in parallel"`
	Workers             int `toml:"workers" config:"filter.workers" default:"0" min:"0" max:"256" desc:"Parallel filter workers (0 = one per CPU)"`
}

// ExportConfig controls CSV export
type ExportConfig struct {
	ChunkRows int `toml:"chunk_rows" config:"export.chunk_rows" default:"5000" min:"1" max:"10000000" desc:"Rows rendered per export chunk"`
	Workers   int `toml:"workers" config:"export.workers" default:"0" min:"0" max:"256" desc:"Parallel export workers (0 = one per CPU)"`
}

// PushConfig holds the PostgreSQL target for csvview push
type PushConfig struct {
	URL string `toml:"url" config:"push.url" desc:"PostgreSQL connection URL"`
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Path returns the path to the config file.
// Follows XDG Base Directory spec on Linux, platform conventions elsewhere.
// CSVVIEW_CONFIG overrides it.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	var configDir string
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "Library", "Application Support", "csvview")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "csvview")
	default: // Linux and others - follow XDG
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "csvview")
		} else {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config", "csvview")
		}
	}

	return filepath.Join(configDir, "config.toml")
}

// Load reads the config file. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path over the defaults. Keys absent from the
// file keep their defaults, and so do integer keys outside their limits.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	resetInvalid(cfg)
	return cfg, nil
}

// Save writes the config file.
func (c *Config) Save() error {
	return c.SaveFile(Path())
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// DatabaseURL returns the push target. CSVVIEW_DATABASE_URL takes precedence
// over the file.
func (c *Config) DatabaseURL() string {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return url
	}
	return c.Push.URL
}

// GetValue returns a config value by key
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key, validating it against the field's limits
func (c *Config) SetValue(key, value string) error {
	return setFieldValue(c, key, value)
}
