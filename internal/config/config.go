// Package config handles configuration loading and management for
// Showrunner. It supports XDG config paths, project-level overrides,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Showrunner.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Generation GenerationConfig `mapstructure:"generation"`
	Output     OutputConfig     `mapstructure:"output"`
	Comfy      ComfyConfig      `mapstructure:"comfy"`
	TUI        TUIConfig        `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseBedrock routes generation through AWS Bedrock instead of the
	// direct API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GenerationConfig holds per-stage generation settings.
type GenerationConfig struct {
	// MaxAttempts bounds generation attempts per stage.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BackoffBase is the retry backoff base delay.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	// Dir is the run output directory for JSON artifacts and reports.
	Dir string `mapstructure:"dir"`
	// LedgerPath is the run ledger database path. Empty means
	// <dir>/runs.db.
	LedgerPath string `mapstructure:"ledger_path"`
}

// ComfyConfig holds ComfyUI rendering settings.
type ComfyConfig struct {
	// URL is the ComfyUI server base URL.
	URL string `mapstructure:"url"`
	// WorkflowPath is the API-format workflow JSON to drive.
	WorkflowPath string `mapstructure:"workflow_path"`
	// PollInterval is how often queued prompts are polled for completion.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Timeout bounds one image render end to end.
	Timeout time.Duration `mapstructure:"timeout"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// LedgerFile resolves the ledger path, defaulting under the output dir.
func (c *Config) LedgerFile() string {
	if c.Output.LedgerPath != "" {
		return c.Output.LedgerPath
	}
	return filepath.Join(c.Output.Dir, "runs.db")
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.showrunner.yaml in current directory or parent)
// 3. User config (~/.config/showrunner/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("generation.max_attempts", cfg.Generation.MaxAttempts)
	v.Set("generation.backoff_base", cfg.Generation.BackoffBase.String())
	v.Set("output.dir", cfg.Output.Dir)
	v.Set("output.ledger_path", cfg.Output.LedgerPath)
	v.Set("comfy.url", cfg.Comfy.URL)
	v.Set("comfy.workflow_path", cfg.Comfy.WorkflowPath)
	v.Set("comfy.poll_interval", cfg.Comfy.PollInterval.String())
	v.Set("comfy.timeout", cfg.Comfy.Timeout.String())
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.backoff_base", "1s")

	v.SetDefault("output.dir", "showrunner-out")
	v.SetDefault("output.ledger_path", "")

	v.SetDefault("comfy.url", "http://127.0.0.1:8188")
	v.SetDefault("comfy.workflow_path", "")
	v.SetDefault("comfy.poll_interval", "2s")
	v.SetDefault("comfy.timeout", "5m")

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Showrunner.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "showrunner")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "showrunner")
	}
	return filepath.Join(home, ".config", "showrunner")
}

// findProjectConfig searches for .showrunner.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".showrunner.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Generation: GenerationConfig{
			MaxAttempts: 3,
			BackoffBase: time.Second,
		},
		Output: OutputConfig{
			Dir: "showrunner-out",
		},
		Comfy: ComfyConfig{
			URL:          "http://127.0.0.1:8188",
			PollInterval: 2 * time.Second,
			Timeout:      5 * time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
