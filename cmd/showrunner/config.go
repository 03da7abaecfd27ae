package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/even/showrunner/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Showrunner configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/showrunner/config.yaml
Project-specific overrides can be placed in .showrunner.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n", maskedAPIKey(cfg), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("generation.max_attempts: %d\n", cfg.Generation.MaxAttempts)
	fmt.Printf("generation.backoff_base: %s\n", cfg.Generation.BackoffBase)
	fmt.Printf("output.dir: %s\n", cfg.Output.Dir)
	fmt.Printf("output.ledger_path: %s\n", cfg.Output.LedgerPath)
	fmt.Printf("comfy.url: %s\n", cfg.Comfy.URL)
	fmt.Printf("comfy.workflow_path: %s\n", cfg.Comfy.WorkflowPath)
	fmt.Printf("comfy.poll_interval: %s\n", cfg.Comfy.PollInterval)
	fmt.Printf("comfy.timeout: %s\n", cfg.Comfy.Timeout)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// maskedAPIKey masks whichever key GetAPIKey would resolve, so the
// display reflects an environment override.
func maskedAPIKey(cfg *config.Config) string {
	key, err := config.GetAPIKey(cfg)
	if err != nil {
		key = ""
	}
	return config.MaskAPIKey(key)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return fmt.Sprintf("%s (source: %s)", maskedAPIKey(cfg), config.GetAPIKeySource(cfg)), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "generation.max_attempts":
		return strconv.Itoa(cfg.Generation.MaxAttempts), nil
	case "generation.backoff_base":
		return cfg.Generation.BackoffBase.String(), nil
	case "output.dir":
		return cfg.Output.Dir, nil
	case "output.ledger_path":
		return cfg.Output.LedgerPath, nil
	case "comfy.url":
		return cfg.Comfy.URL, nil
	case "comfy.workflow_path":
		return cfg.Comfy.WorkflowPath, nil
	case "comfy.poll_interval":
		return cfg.Comfy.PollInterval.String(), nil
	case "comfy.timeout":
		return cfg.Comfy.Timeout.String(), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		// "${VAR}" references resolve at load time and can't be checked here.
		if !strings.HasPrefix(value, "${") {
			if err := config.ValidateAPIKey(value); err != nil {
				return err
			}
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "generation.max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_attempts: %w", err)
		}
		cfg.Generation.MaxAttempts = n
	case "generation.backoff_base":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for backoff_base: %w", err)
		}
		cfg.Generation.BackoffBase = d
	case "output.dir":
		cfg.Output.Dir = value
	case "output.ledger_path":
		cfg.Output.LedgerPath = value
	case "comfy.url":
		cfg.Comfy.URL = value
	case "comfy.workflow_path":
		cfg.Comfy.WorkflowPath = value
	case "comfy.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for poll_interval: %w", err)
		}
		cfg.Comfy.PollInterval = d
	case "comfy.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeout: %w", err)
		}
		cfg.Comfy.Timeout = d
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
