// Package config loads predictkit settings. Values come from built-in
// defaults, then an optional YAML file, then PREDICTKIT_* environment
// variables; command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full set of settings.
type Config struct {
	TreePath     string     `yaml:"tree_path" env:"PREDICTKIT_TREE_PATH"`
	ProfilesPath string     `yaml:"profiles_path" env:"PREDICTKIT_PROFILES_PATH"`
	ONNX         ONNXConfig `yaml:"onnx" envPrefix:"PREDICTKIT_ONNX_"`

	// MaxDimension caps the longer side of images before transforming.
	// Zero keeps the original size.
	MaxDimension int `yaml:"max_dimension" env:"PREDICTKIT_MAX_DIMENSION"`
	// Workers bounds concurrent batch jobs. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" env:"PREDICTKIT_WORKERS"`

	LogLevel  string `yaml:"log_level" env:"PREDICTKIT_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"PREDICTKIT_LOG_FORMAT"`
}

// ONNXConfig selects an ONNX-exported tree instead of the JSON one.
type ONNXConfig struct {
	ModelPath    string `yaml:"model_path" env:"MODEL_PATH"`
	MetadataPath string `yaml:"metadata_path" env:"METADATA_PATH"`
	LibraryPath  string `yaml:"library_path" env:"LIBRARY_PATH"`
}

// Enabled reports whether an ONNX model is configured.
func (c ONNXConfig) Enabled() bool {
	return c.ModelPath != ""
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TreePath:     "model_tree.json",
		ProfilesPath: "emergency_decision_all.json",
		LogLevel:     "info",
		LogFormat:    "console",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables. Fields whose
// variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("max_dimension must not be negative, got %d", c.MaxDimension))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.ONNX.Enabled() && c.ONNX.MetadataPath == "" {
		errs = append(errs, errors.New("onnx.metadata_path is required with onnx.model_path"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
