// Package config handles ~/.journey/config.yaml and the environment overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	fileName = "config.yaml"

	DefaultAPIURL         = "http://localhost:8000"
	DefaultRequestTimeout = 15 * time.Second
	DefaultUploadMaxBytes = 50 * 1024 * 1024
)

const defaultConfigYAML = `# journey client configuration
version: 1

# Base URL of the Spiritual Journey API.
api_url: http://localhost:8000

# Per-request timeout for calls to the API.
request_timeout: 15s

# Background log (failed moves, updates and deletes end up here).
log_level: info
# log_file: /path/to/journey.log

# Largest attachment the client will upload.
upload_max_bytes: 52428800

# Default CLI output format (json|yaml|text).
format: json

tui:
  # Markdown style for item descriptions (auto|dark|light|notty).
  markdown_style: auto
`

type TUIConfig struct {
	MarkdownStyle string `yaml:"markdown_style,omitempty"`
}

type Config struct {
	Version        int           `yaml:"version"`
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file,omitempty"`
	UploadMaxBytes int64         `yaml:"upload_max_bytes"`
	Format         string        `yaml:"format"`
	TUI            TUIConfig     `yaml:"tui"`
}

func Default() *Config {
	return &Config{
		Version:        1,
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
		UploadMaxBytes: DefaultUploadMaxBytes,
		Format:         "json",
		TUI:            TUIConfig{MarkdownStyle: "auto"},
	}
}

// Dir is ~/.journey unless JOURNEY_CONFIG_DIR is set (tests use the override).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("JOURNEY_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".journey"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// LoadFile reads config.yaml over the defaults without applying environment overrides.
func LoadFile() (*Config, error) {
	cfg := Default()
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// Load returns the effective configuration: defaults, then config.yaml, then environment.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("JOURNEY_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("JOURNEY_FORMAT")); v != "" {
		cfg.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("JOURNEY_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func (c *Config) fill() {
	d := Default()
	if c.Version == 0 {
		c.Version = d.Version
	}
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = d.LogLevel
	}
	if c.UploadMaxBytes <= 0 {
		c.UploadMaxBytes = d.UploadMaxBytes
	}
	if strings.TrimSpace(c.Format) == "" {
		c.Format = d.Format
	}
	if strings.TrimSpace(c.TUI.MarkdownStyle) == "" {
		c.TUI.MarkdownStyle = d.TUI.MarkdownStyle
	}
}

// LogPath is log_file when set, else <dir>/journey.log.
func (c *Config) LogPath() (string, error) {
	if p := strings.TrimSpace(c.LogFile); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journey.log"), nil
}

// Init writes the commented default config.yaml when none exists yet.
func Init() (string, bool, error) {
	path, err := Path()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", false, err
	}
	if err := atomicWriteFile(filepath.Dir(path), "config.yaml.*.tmp", path, []byte(defaultConfigYAML), 0o600); err != nil {
		return "", false, err
	}
	return path, true, nil
}

func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Several journey processes (CLI + TUI) may write concurrently; unique temp names avoid clobbering.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

var setters = map[string]func(c *Config, v string) error{
	"api_url": func(c *Config, v string) error {
		v = strings.TrimRight(strings.TrimSpace(v), "/")
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("api_url must start with http:// or https://")
		}
		c.APIURL = v
		return nil
	},
	"request_timeout": func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d <= 0 {
			return fmt.Errorf("request_timeout: invalid duration %q", v)
		}
		c.RequestTimeout = d
		return nil
	},
	"log_level": func(c *Config, v string) error {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
		return nil
	},
	"log_file": func(c *Config, v string) error {
		c.LogFile = strings.TrimSpace(v)
		return nil
	},
	"upload_max_bytes": func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("upload_max_bytes: must be a positive integer")
		}
		c.UploadMaxBytes = n
		return nil
	},
	"format": func(c *Config, v string) error {
		switch v = strings.TrimSpace(v); v {
		case "json", "yaml", "text":
			c.Format = v
			return nil
		}
		return fmt.Errorf("format: expected json|yaml|text, got %q", v)
	},
	"tui.markdown_style": func(c *Config, v string) error {
		switch v = strings.TrimSpace(v); v {
		case "auto", "dark", "light", "notty":
			c.TUI.MarkdownStyle = v
			return nil
		}
		return fmt.Errorf("tui.markdown_style: expected auto|dark|light|notty, got %q", v)
	},
}

// Set assigns one dotted key (see Keys) from its string form.
func (c *Config) Set(key, value string) error {
	fn, ok := setters[strings.TrimSpace(key)]
	if !ok {
		return fmt.Errorf("unknown config key: %s (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, value)
}

func Keys() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
