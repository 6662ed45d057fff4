// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"

database:
  path: "./boards.db"

sessions:
  cookie_domain: "logs.example.com"

logging:
  level: "debug"
  format: "json"

environment: "production"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./boards.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Sessions.CookieDomain != "logs.example.com" {
		t.Errorf("CookieDomain = %q", cfg.Sessions.CookieDomain)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Production() {
		t.Error("expected production mode")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr default = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "tailboard.db" {
		t.Errorf("Database.Path default = %q", cfg.Database.Path)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment default = %q", cfg.Environment)
	}
	if cfg.Production() {
		t.Error("development mode should not report production")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TAILBOARD_TEST_DB", "/data/expanded.db")

	path := writeConfig(t, `
database:
  path: "${TAILBOARD_TEST_DB}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/data/expanded.db" {
		t.Errorf("Database.Path = %q, want expanded env var", cfg.Database.Path)
	}
}

func TestLoad_UnsetEnvVarBecomesDefault(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "${TAILBOARD_DEFINITELY_UNSET_VAR}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Expansion leaves an empty string, which the defaults then fill in.
	if cfg.Database.Path != "tailboard.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	path := writeConfig(t, `
environment: "staging"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "environment") {
		t.Errorf("error = %v, want environment complaint", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [this is: not valid\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
