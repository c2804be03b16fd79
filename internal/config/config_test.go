package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Cortex.DefaultModel != "claude-sonnet-4" {
		t.Errorf("unexpected default model: %s", cfg.Cortex.DefaultModel)
	}
	if len(cfg.Security.RestrictedKeywords) == 0 {
		t.Error("expected built-in restricted keywords")
	}
	if !cfg.Security.EnableAuditLogging {
		t.Error("audit logging should default on")
	}
	if cfg.Security.MaxExecutionTime != 300*time.Second {
		t.Errorf("unexpected max execution time: %s", cfg.Security.MaxExecutionTime)
	}
	if cfg.Containers.MaxConcurrent != 10 {
		t.Errorf("unexpected max concurrent: %d", cfg.Containers.MaxConcurrent)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Warehouse.Database != "CORPORATE_DELEK_AI" {
		t.Errorf("expected default database, got %s", cfg.Warehouse.Database)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cortex:
  default_model: llama3-70b
security:
  restricted_keywords: [topsecret]
  max_execution_time: 30s
  rate_limit:
    window: 10s
    max_requests: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Cortex.DefaultModel != "llama3-70b" {
		t.Errorf("override not applied: %s", cfg.Cortex.DefaultModel)
	}
	if len(cfg.Security.RestrictedKeywords) != 1 || cfg.Security.RestrictedKeywords[0] != "topsecret" {
		t.Errorf("keyword override not applied: %v", cfg.Security.RestrictedKeywords)
	}
	if cfg.Security.MaxExecutionTime != 30*time.Second {
		t.Errorf("duration not parsed: %s", cfg.Security.MaxExecutionTime)
	}
	if cfg.Security.RateLimit.Window != 10*time.Second {
		t.Errorf("rate window not parsed: %s", cfg.Security.RateLimit.Window)
	}
	// Untouched sections keep defaults.
	if !cfg.Security.EnableAuditLogging {
		t.Error("unspecified field should keep default")
	}
	if len(cfg.Cortex.FallbackModels) == 0 {
		t.Error("fallback models should keep defaults")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cortex: [broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for invalid YAML")
	}
}

func TestLoadWithHashPinsBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("security:\n  audit_rejections: false\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, hash1, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Security.AuditRejections {
		t.Error("override not applied")
	}
	if hash1 == "" {
		t.Fatal("hash must not be empty")
	}

	if err := os.WriteFile(path, []byte("security:\n  audit_rejections: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, hash2, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("hash must change when config bytes change")
	}

	// Missing file hashes empty input, deterministically.
	_, h1, _ := LoadWithHash(filepath.Join(dir, "absent.yaml"))
	_, h2, _ := LoadWithHash(filepath.Join(dir, "absent.yaml"))
	if h1 != h2 {
		t.Error("defaults hash must be stable")
	}
}

func TestDefaultYAMLParsesToDefaults(t *testing.T) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(DefaultYAML()), cfg); err != nil {
		t.Fatalf("DefaultYAML must parse: %v", err)
	}
	if cfg.Cortex.DefaultModel != Default().Cortex.DefaultModel {
		t.Errorf("default model mismatch: %s", cfg.Cortex.DefaultModel)
	}
	if cfg.Security.MaxExecutionTime != Default().Security.MaxExecutionTime {
		t.Errorf("max execution time mismatch: %s", cfg.Security.MaxExecutionTime)
	}
}

func TestReloaderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cortex:\n  default_model: gpt-4o\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var got *Config
	r, err := NewReloader(path, func(cfg *Config, hash string) error {
		got = cfg
		return nil
	})
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}

	if err := r.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got == nil || got.Cortex.DefaultModel != "gpt-4o" {
		t.Errorf("reload did not apply new config: %+v", got)
	}
}

func TestReloaderMissingFile(t *testing.T) {
	_, err := NewReloader(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config, string) error { return nil })
	if err == nil {
		t.Error("expected error for missing watch target")
	}
}
