package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses configuration from a file or a directory containing
// config.yaml. Missing fields fall back to Defaults(). If a .checksums
// manifest exists next to the config file, the file is integrity-verified
// against it before use.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DiscoverConfigDir finds the config directory by checking standard locations.
// Priority order: $NIXGW_CONFIG_DIR, ~/.config/nixgw, /etc/nixgw, ./config.yaml (legacy)
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("NIXGW_CONFIG_DIR"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "nixgw")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}

	if _, err := os.Stat("/etc/nixgw"); err == nil {
		return "/etc/nixgw", nil
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	return "", fmt.Errorf("no configuration found\n" +
		"Checked: $NIXGW_CONFIG_DIR, ~/.config/nixgw, /etc/nixgw, ./config.yaml")
}

func validate(cfg *Config) error {
	if cfg.Nix.Binary == "" {
		return fmt.Errorf("nix.binary is required")
	}
	if cfg.Limits.MaxLogs <= 0 {
		return fmt.Errorf("limits.max_logs must be positive, got %d", cfg.Limits.MaxLogs)
	}
	if cfg.Limits.MaxOutputLines <= 0 {
		return fmt.Errorf("limits.max_output_lines must be positive, got %d", cfg.Limits.MaxOutputLines)
	}
	if cfg.Limits.MaxOutputChars <= 0 {
		return fmt.Errorf("limits.max_output_chars must be positive, got %d", cfg.Limits.MaxOutputChars)
	}
	if cfg.API.Enabled && cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required when api.enabled is true")
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history.enabled is true")
	}
	return nil
}
