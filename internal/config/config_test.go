package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Challenge.Translation != nil || cfg.Challenge.Window != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigChallengeSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[challenge]
translation = "BSB"
window = 3
timeout = 5
daily = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := cfg.Challenge
	if c.Translation == nil || *c.Translation != "BSB" {
		t.Fatalf("unexpected translation: %v", c.Translation)
	}
	if c.Window == nil || *c.Window != 3 {
		t.Fatalf("unexpected window: %v", c.Window)
	}
	if c.Timeout == nil || *c.Timeout != 5 {
		t.Fatalf("unexpected timeout: %v", c.Timeout)
	}
	if c.Daily == nil || !*c.Daily {
		t.Fatalf("unexpected daily: %v", c.Daily)
	}
	if c.API != nil {
		t.Fatalf("expected api to be unset")
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[challenge]\nwords = 25\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "challenge.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "versetype", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "versetype", "versetype.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultCorpusDir(); got != filepath.Join("/tmp/data", "versetype", "corpora") {
		t.Fatalf("unexpected corpus dir %q", got)
	}
}
