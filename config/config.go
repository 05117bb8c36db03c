package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vcavallo/dcf-estimate/dcf"
	"github.com/vcavallo/dcf-estimate/logger"
)

// Config represents the top-level configuration
type Config struct {
	LogLevel  string       `yaml:"log_level"`
	Valuation dcf.Config   `yaml:"valuation"`
	Yahoo     YahooConfig  `yaml:"yahoo"`
	Alerts    AlertsConfig `yaml:"alerts"`
	Ntfy      NtfyConfig   `yaml:"ntfy"`
}

// YahooConfig holds data provider settings
type YahooConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// AlertsConfig controls the margin-of-safety verdict
type AlertsConfig struct {
	// MarginOfSafety is the fractional gap between market price and the
	// per-share estimate before a ticker counts as under- or overvalued.
	MarginOfSafety float64 `yaml:"margin_of_safety"`
}

// NtfyConfig holds ntfy server configuration
type NtfyConfig struct {
	Server   string `yaml:"server"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
	Priority int    `yaml:"priority"`
}

// Enabled reports whether enough is configured to publish. A topic left
// as an unexpanded ${VAR} counts as unset.
func (n NtfyConfig) Enabled() bool {
	return n.Server != "" && n.Topic != "" && !strings.Contains(n.Topic, "${")
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		Valuation: dcf.DefaultConfig(),
		Yahoo:     YahooConfig{Timeout: 10 * time.Second},
		Alerts:    AlertsConfig{MarginOfSafety: 0.25},
		Ntfy: NtfyConfig{
			Server:   "https://ntfy.sh",
			Priority: 3,
		},
	}
}

// LoadEnv loads variables from a .env file in the working directory, if
// one exists. Variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads and parses the configuration file. Values present in the
// file override the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	content := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// expandEnvVars replaces ${VAR} patterns with environment variable values
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // strip ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if env var not set
	})
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if err := c.Valuation.Validate(); err != nil {
		return fmt.Errorf("valuation: %w", err)
	}
	if c.Valuation.DefaultGrowthRate <= -1 {
		return fmt.Errorf("valuation.default_growth_rate must be greater than -1")
	}

	if c.Yahoo.Timeout < 0 {
		return fmt.Errorf("yahoo.timeout must not be negative")
	}

	if c.Alerts.MarginOfSafety < 0 || c.Alerts.MarginOfSafety >= 1 {
		return fmt.Errorf("alerts.margin_of_safety must be between 0 and 1")
	}

	if c.Ntfy.Priority < 1 || c.Ntfy.Priority > 5 {
		return fmt.Errorf("ntfy.priority must be between 1 and 5")
	}

	return nil
}

// Template returns a commented config file populated with the defaults
func Template() string {
	d := Default()
	return fmt.Sprintf(`# dcf-estimate configuration
# CLI flags override values set here. ${VAR} is expanded from the
# environment (a .env file in the working directory is loaded first).

log_level: %s

valuation:
  discount_rate: %.4f        # WACC used to discount projected cash flows
  terminal_growth_cap: %.4f  # terminal growth = min(growth, cap)
  projection_years: %d
  default_growth_rate: %.4f  # used when earnings growth is not reported

yahoo:
  timeout: %s

alerts:
  margin_of_safety: %.2f     # price vs. per-share estimate gap for a verdict

ntfy:
  server: %s
  topic: ${NTFY_TOPIC}
  token: ${NTFY_TOKEN}
  priority: %d
`,
		d.LogLevel,
		d.Valuation.DiscountRate,
		d.Valuation.TerminalGrowthCap,
		d.Valuation.ProjectionYears,
		d.Valuation.DefaultGrowthRate,
		d.Yahoo.Timeout,
		d.Alerts.MarginOfSafety,
		d.Ntfy.Server,
		d.Ntfy.Priority,
	)
}
