package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Generation.MaxAttempts != 3 {
		t.Errorf("expected default max attempts 3, got %d", cfg.Generation.MaxAttempts)
	}

	if cfg.Generation.BackoffBase != time.Second {
		t.Errorf("expected backoff base 1s, got %v", cfg.Generation.BackoffBase)
	}

	if cfg.Output.Dir != "showrunner-out" {
		t.Errorf("expected output dir 'showrunner-out', got %q", cfg.Output.Dir)
	}

	if cfg.Comfy.URL != "http://127.0.0.1:8188" {
		t.Errorf("expected default comfy url, got %q", cfg.Comfy.URL)
	}

	if cfg.Comfy.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Comfy.PollInterval)
	}

	if cfg.TUI.RefreshRate != 100*time.Millisecond {
		t.Errorf("expected refresh rate 100ms, got %v", cfg.TUI.RefreshRate)
	}

	if cfg.Anthropic.UseBedrock {
		t.Error("expected bedrock off by default")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-opus-4-20250514
  use_bedrock: true
  aws_region: us-west-2
generation:
  max_attempts: 5
  backoff_base: 2s
output:
  dir: /tmp/show
comfy:
  url: http://comfy:8188
  workflow_path: workflow.json
tui:
  refresh_rate: 200ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Anthropic.Model != "claude-opus-4-20250514" {
		t.Errorf("expected model override, got %q", cfg.Anthropic.Model)
	}

	if !cfg.Anthropic.UseBedrock || cfg.Anthropic.AWSRegion != "us-west-2" {
		t.Errorf("bedrock settings not loaded: %+v", cfg.Anthropic)
	}

	if cfg.Generation.MaxAttempts != 5 {
		t.Errorf("expected max attempts 5, got %d", cfg.Generation.MaxAttempts)
	}

	if cfg.Generation.BackoffBase != 2*time.Second {
		t.Errorf("expected backoff base 2s, got %v", cfg.Generation.BackoffBase)
	}

	if cfg.Output.Dir != "/tmp/show" {
		t.Errorf("expected output dir override, got %q", cfg.Output.Dir)
	}

	if cfg.Comfy.URL != "http://comfy:8188" || cfg.Comfy.WorkflowPath != "workflow.json" {
		t.Errorf("comfy settings not loaded: %+v", cfg.Comfy)
	}

	if cfg.TUI.RefreshRate != 200*time.Millisecond {
		t.Errorf("expected refresh rate 200ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPathPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
output:
  dir: /tmp/other
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Output.Dir != "/tmp/other" {
		t.Errorf("expected output dir override, got %q", cfg.Output.Dir)
	}
	if cfg.Generation.MaxAttempts != 3 {
		t.Errorf("unset keys should keep defaults, got max attempts %d", cfg.Generation.MaxAttempts)
	}
	if cfg.Comfy.Timeout != 5*time.Minute {
		t.Errorf("expected default comfy timeout, got %v", cfg.Comfy.Timeout)
	}
}

func TestLoadFromPathExpandsEnvInAPIKey(t *testing.T) {
	t.Setenv("SHOWRUNNER_TEST_KEY", "sk-ant-from-env")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := "anthropic:\n  api_key: ${SHOWRUNNER_TEST_KEY}\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("expected expanded key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLedgerFile(t *testing.T) {
	cfg := Default()
	cfg.Output.Dir = "/tmp/show"
	if got := cfg.LedgerFile(); got != filepath.Join("/tmp/show", "runs.db") {
		t.Errorf("LedgerFile = %q", got)
	}

	cfg.Output.LedgerPath = "/var/lib/show/ledger.db"
	if got := cfg.LedgerFile(); got != "/var/lib/show/ledger.db" {
		t.Errorf("LedgerFile with explicit path = %q", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.Model = "claude-opus-4-20250514"
	cfg.Generation.MaxAttempts = 4

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Anthropic.Model != "claude-opus-4-20250514" {
		t.Errorf("model not round-tripped: %q", loaded.Anthropic.Model)
	}
	if loaded.Generation.MaxAttempts != 4 {
		t.Errorf("max attempts not round-tripped: %d", loaded.Generation.MaxAttempts)
	}
}
