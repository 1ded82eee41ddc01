package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv points every lookup location at a fresh directory and clears
// the variables Load consults. Tests using it cannot run in parallel.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, EnvPrefix+"_") {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.HasPrefix(cfg.DataDir, dir) || filepath.Base(cfg.DataDir) != "fitbuddy" {
		t.Errorf("Expected data dir under the user config dir, got '%s'", cfg.DataDir)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("Expected default driver 'file', got '%s'", cfg.Storage.Driver)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected default log format 'json', got '%s'", cfg.Log.Format)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.Timeout != 30*time.Second {
		t.Errorf("Unexpected AI defaults: %+v", cfg.AI)
	}
	if cfg.AI.Enabled() {
		t.Error("Expected AI disabled without an API key")
	}
	if cfg.Notification.Duration != 3*time.Second {
		t.Errorf("Expected 3s notification duration, got %v", cfg.Notification.Duration)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected loopback server address, got '%s'", cfg.Server.Addr)
	}
	if cfg.Path != "" {
		t.Errorf("Expected no config file, got '%s'", cfg.Path)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolateEnv(t)

	path := writeConfig(t, dir, `
data_dir: /tmp/fitbuddy-test
log:
  format: console
storage:
  driver: sqlite
ai:
  provider: gemini
  timeout: 45s
  rate_limit: 10-M
notification:
  duration: 5s
`)
	t.Setenv("FITBUDDY_STORAGE_DRIVER", "memory")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Expected config path '%s', got '%s'", path, cfg.Path)
	}
	if cfg.DataDir != "/tmp/fitbuddy-test" {
		t.Errorf("Expected data dir from file, got '%s'", cfg.DataDir)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Expected console format, got '%s'", cfg.Log.Format)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Expected env to override driver, got '%s'", cfg.Storage.Driver)
	}
	if cfg.AI.Timeout != 45*time.Second || cfg.AI.RateLimit != "10-M" {
		t.Errorf("Unexpected AI config: %+v", cfg.AI)
	}
	if cfg.AI.APIKey != "gemini-key" {
		t.Errorf("Expected GEMINI_API_KEY fallback, got '%s'", cfg.AI.APIKey)
	}
	if cfg.Notification.Duration != 5*time.Second {
		t.Errorf("Expected 5s notification duration, got %v", cfg.Notification.Duration)
	}
}

func TestLoad_APIKeyPrecedence(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("FITBUDDY_AI_API_KEY", "explicit")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.APIKey != "explicit" {
		t.Errorf("Expected FITBUDDY_AI_API_KEY to win, got '%s'", cfg.AI.APIKey)
	}

	pc := cfg.AI.ProviderConfig(true)
	if pc["api_key"] != "explicit" || pc["timeout"] != "30s" || pc["debug"] != "true" {
		t.Errorf("Unexpected provider config: %v", pc)
	}
	if _, ok := pc["model"]; ok {
		t.Error("Expected model to be omitted when unset")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{name: "unknown driver", envVars: map[string]string{"FITBUDDY_STORAGE_DRIVER": "mongo"}},
		{name: "postgres without dsn", envVars: map[string]string{"FITBUDDY_STORAGE_DRIVER": "postgres"}},
		{name: "redis without url", envVars: map[string]string{"FITBUDDY_STORAGE_DRIVER": "redis"}},
		{name: "unknown provider", envVars: map[string]string{"FITBUDDY_AI_PROVIDER": "llama"}},
		{name: "unknown log format", envVars: map[string]string{"FITBUDDY_LOG_FORMAT": "xml"}},
		{name: "bad server address", envVars: map[string]string{"FITBUDDY_SERVER_ADDR": "localhost"}},
		{name: "zero notification duration", envVars: map[string]string{"FITBUDDY_NOTIFICATION_DURATION": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolateEnv(t)
	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}
