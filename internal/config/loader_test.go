package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "nixgw", cfg.Service.Name)
	assert.Equal(t, "info", cfg.Service.LogLevel)
	assert.Equal(t, "nix", cfg.Nix.Binary)
	assert.Equal(t, []string{"--extra-experimental-features", "nix-command flakes"}, cfg.Nix.ExtraArgs)
	assert.Equal(t, 100, cfg.Limits.MaxLogs)
	assert.Equal(t, 50, cfg.Limits.MaxOutputLines)
	assert.Equal(t, 4000, cfg.Limits.MaxOutputChars)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:8080", cfg.API.Listen)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
service:
  log_level: debug
nix:
  binary: /run/current-system/sw/bin/nix
limits:
  max_logs: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, "/run/current-system/sw/bin/nix", cfg.Nix.Binary)
	assert.Equal(t, 25, cfg.Limits.MaxLogs)
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Limits.MaxOutputLines)
	assert.Equal(t, "nixgw", cfg.Service.Name)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "service:\n  name: from-dir\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dir", cfg.Service.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadDirectoryWithoutConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.yaml not found")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "service: [not\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "zero max_logs",
			yaml:    "limits:\n  max_logs: 0\n",
			wantErr: "max_logs must be positive",
		},
		{
			name:    "negative max_output_lines",
			yaml:    "limits:\n  max_output_lines: -1\n",
			wantErr: "max_output_lines must be positive",
		},
		{
			name:    "api enabled without listen",
			yaml:    "api:\n  enabled: true\n  listen: \"\"\n",
			wantErr: "api.listen is required",
		},
		{
			name:    "history enabled without path",
			yaml:    "history:\n  enabled: true\n  path: \"\"\n",
			wantErr: "history.path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.yaml)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiscoverConfigDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NIXGW_CONFIG_DIR", dir)

	got, err := DiscoverConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestDiscoverConfigDirEnvMissingFallsThrough(t *testing.T) {
	t.Setenv("NIXGW_CONFIG_DIR", filepath.Join(t.TempDir(), "does-not-exist"))
	t.Setenv("HOME", t.TempDir())

	_, err := DiscoverConfigDir()
	// With no home config, /etc/nixgw, or local config.yaml the discovery
	// fails with a hint, unless the host happens to carry one.
	if err != nil {
		assert.Contains(t, err.Error(), "no configuration found")
	}
}
