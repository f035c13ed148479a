package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("JOURNEY_CONFIG_DIR", t.TempDir())
	t.Setenv("JOURNEY_API_URL", "")
	t.Setenv("DEBUG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.Format != "json" {
		t.Fatalf("Format = %q, want json", cfg.Format)
	}
}

func TestLoadParsesYAMLAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNEY_CONFIG_DIR", dir)
	raw := strings.TrimSpace(`
version: 1
api_url: https://journey.example.org/
request_timeout: 3s
log_level: warn
format: yaml
tui:
  markdown_style: dark
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JOURNEY_API_URL", "")
	t.Setenv("DEBUG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://journey.example.org" {
		t.Fatalf("APIURL = %q (trailing slash should be trimmed)", cfg.APIURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if cfg.TUI.MarkdownStyle != "dark" {
		t.Fatalf("MarkdownStyle = %q, want dark", cfg.TUI.MarkdownStyle)
	}

	t.Setenv("JOURNEY_API_URL", "http://127.0.0.1:9999")
	t.Setenv("DEBUG", "1")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9999" {
		t.Fatalf("env override not applied: %q", cfg.APIURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("DEBUG=1 should force debug level, got %q", cfg.LogLevel)
	}
}

func TestInitWritesTemplateOnce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNEY_CONFIG_DIR", dir)

	path, created, err := Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !created {
		t.Fatalf("expected first Init to create the file")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "api_url: http://localhost:8000") {
		t.Fatalf("template missing api_url:\n%s", b)
	}

	if _, created, err := Init(); err != nil || created {
		t.Fatalf("second Init: created=%v err=%v", created, err)
	}
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("JOURNEY_CONFIG_DIR", t.TempDir())
	t.Setenv("JOURNEY_API_URL", "")

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Set("api_url", "https://api.example.org/"); err != nil {
		t.Fatalf("Set api_url: %v", err)
	}
	if err := cfg.Set("request_timeout", "750ms"); err != nil {
		t.Fatalf("Set request_timeout: %v", err)
	}
	if err := cfg.Set("format", "edn"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile after save: %v", err)
	}
	if got.APIURL != "https://api.example.org" || got.RequestTimeout != 750*time.Millisecond {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
