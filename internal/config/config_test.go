package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"codefinder-api"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("codefinder-api", pflag.ContinueOnError)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codefinder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	setArgs(t)

	cfg, err := Load("", newFlagSet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Auth.Enabled {
		t.Error("auth should be disabled by default")
	}
	if cfg.IsProduction() {
		t.Error("development must not be production")
	}
	if cfg.PersistenceEnabled() {
		t.Error("persistence should be off without a database URL")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	setArgs(t)
	path := writeConfig(t, `
port: 9090
logLevel: debug
environment: production
workers: 4
database: postgres://localhost/codefinder
`)

	cfg, err := Load(path, newFlagSet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.LogLevel != "debug" || cfg.Workers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.IsProduction() {
		t.Error("production environment not detected")
	}
	if !cfg.PersistenceEnabled() {
		t.Error("database URL should enable persistence")
	}
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	setArgs(t)
	if _, err := Load("/nonexistent/codefinder.yaml", newFlagSet()); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	setArgs(t)
	path := writeConfig(t, "port: 9090\n")
	t.Setenv("CODEFINDER_PORT", "7070")
	t.Setenv("CODEFINDER_GITHUB_TOKEN", "env-token")

	cfg, err := Load(path, newFlagSet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Port)
	}
	if cfg.GithubToken != "env-token" {
		t.Errorf("GithubToken = %q, want env-token", cfg.GithubToken)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	setArgs(t, "--port", "6060", "--log-level", "warn")
	t.Setenv("CODEFINDER_PORT", "7070")

	cfg, err := Load("", newFlagSet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 6060 {
		t.Errorf("Port = %d, want flag override 6060", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_AuthRequiresJwtSecret(t *testing.T) {
	setArgs(t, "--auth-enabled")

	if _, err := Load("", newFlagSet()); err == nil {
		t.Error("expected error when auth is enabled without a JWT secret")
	}

	setArgs(t, "--auth-enabled", "--auth-jwt-secret", "s3cret")
	cfg, err := Load("", newFlagSet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.Enabled || cfg.Auth.JwtSecret != "s3cret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}
