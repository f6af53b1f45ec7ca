package config

// Config represents the complete nixgw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Nix     NixConfig     `yaml:"nix"`
	Limits  LimitsConfig  `yaml:"limits"`
	API     APIConfig     `yaml:"api,omitempty"`
	History HistoryConfig `yaml:"history"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// NixConfig defines how the external nix binary is invoked.
type NixConfig struct {
	// Binary is the nix executable name or path.
	Binary string `yaml:"binary"`
	// ExtraArgs are prepended to every invocation (e.g. experimental
	// feature flags).
	ExtraArgs []string `yaml:"extra_args,omitempty"`
	// WorkDir is the default working directory for flake operations.
	// Empty means the gateway's own working directory.
	WorkDir string `yaml:"work_dir,omitempty"`
}

// LimitsConfig bounds the output log subsystem. The three values must stay
// consistent: the same line/char thresholds drive both archiving and display
// truncation.
type LimitsConfig struct {
	MaxLogs        int `yaml:"max_logs"`
	MaxOutputLines int `yaml:"max_output_lines"`
	MaxOutputChars int `yaml:"max_output_chars"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// HistoryConfig defines the persistent execution journal settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "nixgw",
			LogLevel: "info",
		},
		Nix: NixConfig{
			Binary:    "nix",
			ExtraArgs: []string{"--extra-experimental-features", "nix-command flakes"},
		},
		Limits: LimitsConfig{
			MaxLogs:        100,
			MaxOutputLines: 50,
			MaxOutputChars: 4000,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./data/history.db",
		},
	}
}
