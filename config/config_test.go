package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcavallo/dcf-estimate/dcf"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadOrDefaultMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, dcf.Config{
		DiscountRate:      0.0782,
		TerminalGrowthCap: 0.03,
		ProjectionYears:   5,
		DefaultGrowthRate: 0.08,
	}, cfg.Valuation)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("TEST_NTFY_TOPIC", "valuations")
	path := writeConfig(t, `
valuation:
  discount_rate: 0.09
  projection_years: 10
yahoo:
  timeout: 3s
ntfy:
  topic: ${TEST_NTFY_TOPIC}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.09, cfg.Valuation.DiscountRate)
	assert.Equal(t, 10, cfg.Valuation.ProjectionYears)
	assert.Equal(t, 0.03, cfg.Valuation.TerminalGrowthCap)
	assert.Equal(t, 0.08, cfg.Valuation.DefaultGrowthRate)
	assert.Equal(t, 3*time.Second, cfg.Yahoo.Timeout)
	assert.Equal(t, "valuations", cfg.Ntfy.Topic)
	assert.Equal(t, 3, cfg.Ntfy.Priority)
	assert.True(t, cfg.Ntfy.Enabled())
}

func TestLoadOrDefaultReadsExistingFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cfg, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadTemplate(t *testing.T) {
	t.Setenv("NTFY_TOPIC", "")
	path := writeConfig(t, Template())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Valuation, cfg.Valuation)
	assert.Equal(t, Default().Yahoo, cfg.Yahoo)
	assert.Equal(t, Default().Alerts, cfg.Alerts)
	assert.False(t, cfg.Ntfy.Enabled(), "unexpanded topic must not enable ntfy")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "discount rate equals terminal cap",
			mutate:  func(c *Config) { c.Valuation.DiscountRate = 0.03 },
			wantErr: "discount rate must exceed terminal growth rate",
		},
		{
			name:    "zero projection years",
			mutate:  func(c *Config) { c.Valuation.ProjectionYears = 0 },
			wantErr: "projection years must be at least 1",
		},
		{
			name:    "margin of safety out of range",
			mutate:  func(c *Config) { c.Alerts.MarginOfSafety = 1.5 },
			wantErr: "alerts.margin_of_safety must be between 0 and 1",
		},
		{
			name:    "bad priority",
			mutate:  func(c *Config) { c.Ntfy.Priority = 9 },
			wantErr: "ntfy.priority must be between 1 and 5",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: `log_level: invalid log level "loud"`,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Yahoo.Timeout = -time.Second },
			wantErr: "yahoo.timeout must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, Default().Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "valuation: [not, a, map")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestExpandEnvVarsKeepsUnset(t *testing.T) {
	t.Setenv("DCF_SET", "yes")
	got := expandEnvVars("a: ${DCF_SET}\nb: ${DCF_SURELY_UNSET_VAR}")
	assert.Equal(t, "a: yes\nb: ${DCF_SURELY_UNSET_VAR}", got)
}

func TestLoadEnvWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.NoError(t, LoadEnv())
}
