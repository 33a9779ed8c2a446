// Package config loads diag settings from YAML and builds the callback they
// describe.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// EnvLogLevel overrides Config.LogLevel when set.
const EnvLogLevel = "DIAG_LOG_LEVEL"

// Config is the top-level diag configuration.
type Config struct {
	LogLevel    string      `yaml:"log_level"`    // debug, info, warning, error
	FatalPolicy string      `yaml:"fatal_policy"` // panic, exit
	Scrubbing   *bool       `yaml:"scrubbing"`    // default true
	Sinks       SinksConfig `yaml:"sinks"`
}

// SinksConfig selects the sinks events are delivered to.
type SinksConfig struct {
	Stderr  StderrConfig  `yaml:"stderr"`
	CXDB    CXDBConfig    `yaml:"cxdb"`
	Metrics MetricsConfig `yaml:"metrics"`
	Async   AsyncConfig   `yaml:"async"`
}

// StderrConfig holds stderr sink settings.
type StderrConfig struct {
	Enabled bool `yaml:"enabled"`
	Verbose bool `yaml:"verbose"`
}

// CXDBConfig holds cxdb sink settings. An empty address disables the sink.
type CXDBConfig struct {
	Address      string   `yaml:"address"`
	ClientTag    string   `yaml:"client_tag"`
	OrphanLabels []string `yaml:"orphan_labels"`
	MinSeverity  string   `yaml:"min_severity"`
}

// MetricsConfig holds Prometheus sink settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// AsyncConfig wraps all sinks in a bounded queue when enabled.
type AsyncConfig struct {
	Enabled   bool `yaml:"enabled"`
	QueueSize int  `yaml:"queue_size"`
}

// Default returns the configuration used when no file is given:
// warnings and above printed to stderr, fatal failures panic.
func Default() *Config {
	cfg := &Config{}
	cfg.Sinks.Stderr.Enabled = true
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. Environment variables in the
// file are expanded; envFiles, if given, are loaded into the environment
// first with godotenv (existing variables win).
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = diag.SeverityWarning.String()
	}
	if c.FatalPolicy == "" {
		c.FatalPolicy = diag.FatalPanic.String()
	}
	if c.Scrubbing == nil {
		on := true
		c.Scrubbing = &on
	}
	if c.Sinks.CXDB.ClientTag == "" {
		c.Sinks.CXDB.ClientTag = "diag"
	}
	if c.Sinks.CXDB.MinSeverity == "" {
		c.Sinks.CXDB.MinSeverity = diag.SeverityWarning.String()
	}
	if c.Sinks.Metrics.Namespace == "" {
		c.Sinks.Metrics.Namespace = "diag"
	}
	if c.Sinks.Async.QueueSize <= 0 {
		c.Sinks.Async.QueueSize = 1000
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var problems []string
	if _, err := diag.ParseSeverity(c.LogLevel); err != nil {
		problems = append(problems, "log_level: "+err.Error())
	}
	if _, err := diag.ParseFatalPolicy(c.FatalPolicy); err != nil {
		problems = append(problems, "fatal_policy: "+err.Error())
	}
	if _, err := diag.ParseSeverity(c.Sinks.CXDB.MinSeverity); err != nil {
		problems = append(problems, "sinks.cxdb.min_severity: "+err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() diag.Severity {
	s, _ := diag.ParseSeverity(c.LogLevel)
	return s
}

// Policy returns the parsed fatal policy.
func (c *Config) Policy() diag.FatalPolicy {
	p, _ := diag.ParseFatalPolicy(c.FatalPolicy)
	return p
}
