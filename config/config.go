// Package config loads risp settings from an optional YAML file,
// overlaid by RISP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Socket    string   `yaml:"socket"`     // unix socket served by `risp serve`
	Database  string   `yaml:"database"`   // SQLite definition store, empty disables it
	History   string   `yaml:"history"`    // REPL history file
	MaxTraces int      `yaml:"max_traces"` // traces kept per session
	Preload   []string `yaml:"preload"`    // files loaded before the first prompt
}

func Default() Config {
	history := ".risp_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".risp_history")
	}
	return Config{
		Socket:    "/tmp/risp.sock",
		History:   history,
		MaxTraces: 1000,
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path falls back to $RISP_CONFIG; when
// that is unset too, only defaults and environment are used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("RISP_CONFIG")
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if cfg.MaxTraces <= 0 {
		return Config{}, fmt.Errorf("config: max_traces must be positive, got %d", cfg.MaxTraces)
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Socket = envOr("RISP_SOCK", c.Socket)
	c.Database = envOr("RISP_DB", c.Database)
	c.History = envOr("RISP_HISTORY", c.History)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
