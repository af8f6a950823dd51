package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risp.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RISP_CONFIG", "RISP_SOCK", "RISP_DB", "RISP_HISTORY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Socket != "/tmp/risp.sock" || cfg.MaxTraces != 1000 || cfg.Database != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
socket: /tmp/other.sock
database: defs.db
max_traces: 10
preload:
  - lib/core.risp
  - lib/extra.risp
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Socket != "/tmp/other.sock" || cfg.Database != "defs.db" || cfg.MaxTraces != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Preload, []string{"lib/core.risp", "lib/extra.risp"}) {
		t.Fatalf("unexpected preload %v", cfg.Preload)
	}
	if cfg.History == "" {
		t.Fatal("history should keep its default")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxTraces != 1000 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "sockt: /tmp/typo.sock\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsBadMaxTraces(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "max_traces: -1\n")); err == nil {
		t.Fatal("expected error for negative max_traces")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "socket: /tmp/file.sock\ndatabase: file.db\n")
	t.Setenv("RISP_CONFIG", path)
	t.Setenv("RISP_SOCK", "/tmp/env.sock")
	t.Setenv("RISP_HISTORY", "/tmp/env_history")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Socket != "/tmp/env.sock" {
		t.Fatalf("env should override socket, got %s", cfg.Socket)
	}
	if cfg.Database != "file.db" {
		t.Fatalf("file database should survive, got %s", cfg.Database)
	}
	if cfg.History != "/tmp/env_history" {
		t.Fatalf("env should override history, got %s", cfg.History)
	}
}
