// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all tracker configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Tracking TrackingConfig `yaml:"tracking"`
	Location LocationConfig `yaml:"location"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProjectConfig identifies the workload being tracked.
type ProjectConfig struct {
	Name         string `yaml:"name"`
	ExperimentID string `yaml:"experiment_id"`
}

// TrackingConfig holds the sampling and integration settings.
type TrackingConfig struct {
	// Interval is the period between scheduled power measurements.
	Interval Duration `yaml:"interval"`

	// PUE translates IT-equipment energy into total facility energy.
	// Applied uniformly to all hardware domains. Must be >= 1.0.
	PUE float64 `yaml:"pue"`

	// ForceCPUPower, ForceRAMPower and ForceGPUPower pin the given
	// domain to a fixed wattage for the whole session, bypassing the
	// live sampler. Nil means "sample normally".
	ForceCPUPower *float64 `yaml:"force_cpu_power"`
	ForceRAMPower *float64 `yaml:"force_ram_power"`
	ForceGPUPower *float64 `yaml:"force_gpu_power"`
}

// LocationConfig optionally pins the session location. When CountryCode
// is empty the location is auto-resolved via geo-IP.
type LocationConfig struct {
	CountryCode string `yaml:"country_code"`
	Region      string `yaml:"region"`
}

// OutputConfig holds emissions record output settings.
type OutputConfig struct {
	SaveToFile bool   `yaml:"save_to_file"`
	File       string `yaml:"file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name: "default",
		},
		Tracking: TrackingConfig{
			Interval: Duration{15 * time.Second},
			PUE:      1.0,
		},
		Output: OutputConfig{
			SaveToFile: true,
			File:       "emissions.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	// Environment variable overrides (highest precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist — use defaults + env overrides
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if name := os.Getenv("CT_PROJECT_NAME"); name != "" {
		cfg.Project.Name = name
	}
	if country := os.Getenv("CT_COUNTRY_CODE"); country != "" {
		cfg.Location.CountryCode = country
	}
	if region := os.Getenv("CT_REGION"); region != "" {
		cfg.Location.Region = region
	}
	if file := os.Getenv("CT_OUTPUT_FILE"); file != "" {
		cfg.Output.File = file
	}
	if level := os.Getenv("CT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if pue := os.Getenv("CT_PUE"); pue != "" {
		if v, err := strconv.ParseFloat(pue, 64); err == nil {
			cfg.Tracking.PUE = v
		}
	}
}

// Validate checks that the configuration describes a usable tracking session.
func (c *Config) Validate() error {
	if c.Tracking.Interval.Duration <= 0 {
		return fmt.Errorf("measurement interval must be positive (got %v)", c.Tracking.Interval.Duration)
	}
	if c.Tracking.PUE < 1.0 {
		return fmt.Errorf("pue must be >= 1.0 (got %g)", c.Tracking.PUE)
	}
	for name, p := range map[string]*float64{
		"force_cpu_power": c.Tracking.ForceCPUPower,
		"force_ram_power": c.Tracking.ForceRAMPower,
		"force_gpu_power": c.Tracking.ForceGPUPower,
	} {
		if p != nil && *p < 0 {
			return fmt.Errorf("%s must not be negative (got %g)", name, *p)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Output.SaveToFile && c.Output.File == "" {
		return fmt.Errorf("output file is required when save_to_file is enabled")
	}
	return nil
}
