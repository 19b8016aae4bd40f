package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("STORESEARCH_ENDPOINT", "")
	t.Setenv("STORESEARCH_LANG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Limit != 30 || cfg.Search.Lang != "en_us" {
		t.Errorf("defaults not applied: %+v", cfg.Search)
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Debounce())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORESEARCH_ENDPOINT", "http://localhost:9999/search")
	t.Setenv("STORESEARCH_LANG", "ja_jp")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Endpoint != "http://localhost:9999/search" || cfg.Search.Lang != "ja_jp" {
		t.Errorf("env not applied: %+v", cfg.Search)
	}
}

func TestSaveLoadKeepsDefaultsForMissingFields(t *testing.T) {
	t.Setenv("STORESEARCH_ENDPOINT", "")
	t.Setenv("STORESEARCH_LANG", "")
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"search":{"limit":10},"ui":{"view":"grid"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Limit != 10 || cfg.UI.View != "grid" {
		t.Errorf("file values lost: %+v %+v", cfg.Search, cfg.UI)
	}
	if cfg.Search.DebounceMs != 300 || cfg.Images.CacheEntries != 512 {
		t.Errorf("defaults lost: %+v %+v", cfg.Search, cfg.Images)
	}

	cfg.Search.Limit = 50
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Search.Limit != 50 {
		t.Errorf("saved limit = %d, want 50", again.Search.Limit)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Limit = 1000
	cfg.Search.RequestsPerMinute = -5
	cfg.UI.View = "carousel"
	cfg.Validate()

	def := DefaultConfig()
	if cfg.Search.Limit != def.Search.Limit {
		t.Errorf("Limit = %d", cfg.Search.Limit)
	}
	if cfg.Search.RequestsPerMinute != def.Search.RequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d", cfg.Search.RequestsPerMinute)
	}
	if cfg.UI.View != "table" {
		t.Errorf("View = %q", cfg.UI.View)
	}
	if cfg.Search.Endpoint == "" || cfg.Timeout() != 30*time.Second {
		t.Errorf("empty fields not defaulted: %+v", cfg.Search)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.sh")
	script := "#!/bin/sh\nexport STORESEARCH_ENDPOINT=\"http://mirror/search\"\nSTORESEARCH_LANG=fr_fr\nexport OTHER=1\n"
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if cfg.Search.Endpoint != "http://mirror/search" || cfg.Search.Lang != "fr_fr" {
		t.Errorf("env file not applied: %+v", cfg.Search)
	}
}

func TestDefaultConfigDoesNotPaceSearches(t *testing.T) {
	def := DefaultConfig()
	if def.Search.RequestsPerMinute != 0 {
		t.Errorf("RequestsPerMinute = %d, want 0 so an All search fans out at once", def.Search.RequestsPerMinute)
	}

	// Pacing stays available as an explicit setting.
	cfg := DefaultConfig()
	cfg.Search.RequestsPerMinute = 20
	cfg.Validate()
	if cfg.Search.RequestsPerMinute != 20 || cfg.Search.Burst != 4 {
		t.Errorf("opt-in pacing lost in Validate: %+v", cfg.Search)
	}
}
