package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the persistent application configuration
type Config struct {
	// Search endpoint and pacing
	Search SearchConfig `json:"search"`

	// Artwork cache
	Images ImageConfig `json:"images"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// SearchConfig holds search endpoint settings
type SearchConfig struct {
	Endpoint          string `json:"endpoint"`
	Lang              string `json:"lang"`
	Limit             int    `json:"limit"`
	TimeoutSec        int    `json:"timeout_sec"`         // Per-scope request timeout
	RequestsPerMinute int    `json:"requests_per_minute"` // 0 (default) disables pacing
	Burst             int    `json:"burst"`
	DebounceMs        int    `json:"debounce_ms"`
}

// ImageConfig holds artwork download settings
type ImageConfig struct {
	CacheEntries int `json:"cache_entries"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Scope    string `json:"scope"` // Scope selected at startup
	View     string `json:"view"`  // "table" or "grid"
	LogLevel string `json:"log_level"`
	LogDir   string `json:"log_dir,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Endpoint:          "https://itunes.apple.com/search",
			Lang:              "en_us",
			Limit:             30,
			TimeoutSec:        30,
			RequestsPerMinute: 0, // Opt-in; the public API tolerates roughly 20/min
			Burst:             4, // One All search fans out to four requests
			DebounceMs:        300,
		},
		Images: ImageConfig{
			CacheEntries: 512,
		},
		UI: UIConfig{
			Scope:    "All",
			View:     "table",
			LogLevel: "info",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".storesearch", "config.json")
}

// Load reads config from path (ConfigPath when empty), or returns defaults.
// Missing fields keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults and try to auto-populate from environment
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.AutoPopulateFromEnv()
	cfg.Validate()
	return cfg, nil
}

// Save writes config to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies STORESEARCH_ENDPOINT and STORESEARCH_LANG
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("STORESEARCH_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
	if v := os.Getenv("STORESEARCH_LANG"); v != "" {
		c.Search.Lang = v
	}
}

// LoadEnvFile applies settings from a shell script of
// `export STORESEARCH_ENDPOINT=...` lines.
func (c *Config) LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "STORESEARCH_ENDPOINT":
			c.Search.Endpoint = value
		case "STORESEARCH_LANG":
			c.Search.Lang = value
		}
	}

	return nil
}

// Validate resets out-of-range values to their defaults
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = def.Search.Endpoint
	}
	if c.Search.Lang == "" {
		c.Search.Lang = def.Search.Lang
	}
	if c.Search.Limit <= 0 || c.Search.Limit > 200 {
		c.Search.Limit = def.Search.Limit
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = def.Search.TimeoutSec
	}
	if c.Search.RequestsPerMinute < 0 {
		c.Search.RequestsPerMinute = def.Search.RequestsPerMinute
	}
	if c.Search.Burst <= 0 {
		c.Search.Burst = def.Search.Burst
	}
	if c.Search.DebounceMs <= 0 {
		c.Search.DebounceMs = def.Search.DebounceMs
	}
	if c.Images.CacheEntries <= 0 {
		c.Images.CacheEntries = def.Images.CacheEntries
	}
	if c.UI.View != "table" && c.UI.View != "grid" {
		c.UI.View = def.UI.View
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = def.UI.LogLevel
	}
}

// Debounce returns the input debounce interval
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMs) * time.Millisecond
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Search.TimeoutSec) * time.Second
}
