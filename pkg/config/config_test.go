package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// isolateEnv clears every AWSASYNC_* variable for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, `
logging:
  level: "debug"

offload:
  workers: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Offload.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Offload.Workers)
	}
	if cfg.Offload.Executor != "native" {
		t.Errorf("Expected default executor 'native', got %q", cfg.Offload.Executor)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Gateway.Port != 8080 {
		t.Errorf("Expected gateway port 8080, got %d", cfg.Gateway.Port)
	}
	if len(cfg.Gateway.Services) != 2 {
		t.Errorf("Expected default services [s3 sts], got %v", cfg.Gateway.Services)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults when file is missing, got error: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestLoad_Durations(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, `
shutdown_timeout: 5s
gateway:
  request_timeout: 2m
  read_timeout: 1500ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown_timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Gateway.RequestTimeout != 2*time.Minute {
		t.Errorf("Expected request_timeout 2m, got %v", cfg.Gateway.RequestTimeout)
	}
	if cfg.Gateway.ReadTimeout != 1500*time.Millisecond {
		t.Errorf("Expected read_timeout 1.5s, got %v", cfg.Gateway.ReadTimeout)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, `
offload:
  workers: 8
`)

	t.Setenv("AWSASYNC_OFFLOAD_WORKERS", "64")
	t.Setenv("AWSASYNC_OFFLOAD_EXECUTOR", "queue")
	t.Setenv("AWSASYNC_AWS_REGION", "eu-west-1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Offload.Workers != 64 {
		t.Errorf("Expected env to override workers to 64, got %d", cfg.Offload.Workers)
	}
	if cfg.Offload.Executor != "queue" {
		t.Errorf("Expected env executor 'queue', got %q", cfg.Offload.Executor)
	}
	if cfg.AWS.Region != "eu-west-1" {
		t.Errorf("Expected env region eu-west-1, got %q", cfg.AWS.Region)
	}
}

func TestLoad_EnvironmentWithoutFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AWSASYNC_LOGGING_FORMAT", "json")
	t.Setenv("AWSASYNC_GATEWAY_SERVICES", "s3,sim")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected env format json, got %q", cfg.Logging.Format)
	}
	if len(cfg.Gateway.Services) != 2 || cfg.Gateway.Services[1] != "sim" {
		t.Errorf("Expected services [s3 sim], got %v", cfg.Gateway.Services)
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, `
offload:
  executor: threads
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected validation error for unknown executor")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, "logging: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "awsasync config init") {
		t.Errorf("Expected init instructions in error, got: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	isolateEnv(t)

	cfg := GetDefaultConfig()
	cfg.Offload.Workers = 12
	cfg.Offload.Executor = "queue"
	cfg.AWS.Region = "us-west-2"
	cfg.Gateway.RequestTimeout = 45 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Offload.Workers != 12 || loaded.Offload.Executor != "queue" {
		t.Errorf("Offload section not preserved: %+v", loaded.Offload)
	}
	if loaded.AWS.Region != "us-west-2" {
		t.Errorf("Expected region us-west-2, got %q", loaded.AWS.Region)
	}
	if loaded.Gateway.RequestTimeout != 45*time.Second {
		t.Errorf("Expected request_timeout 45s, got %v", loaded.Gateway.RequestTimeout)
	}
}

func TestSaveConfig_OmitsEmptySecret(t *testing.T) {
	cfg := GetDefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), "jwt_secret") {
		t.Errorf("Expected empty jwt_secret to be omitted:\n%s", data)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := GetConfigDir(); got != filepath.Join(dir, "awsasync") {
		t.Errorf("Expected XDG config dir, got %q", got)
	}
	if got := GetDefaultConfigPath(); got != filepath.Join(dir, "awsasync", "config.yaml") {
		t.Errorf("Unexpected default path %q", got)
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in a fresh XDG dir")
	}
}
