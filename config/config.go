// Package config loads wordvec run configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vpatel95/text-vector/train"
)

// Environment variables that override file values.
const (
	EnvLogLevel = "WORDVEC_LOG_LEVEL"
	EnvThreads  = "WORDVEC_THREADS"
)

// Config defines a training run.
type Config struct {
	Train       train.Settings `yaml:"train"`
	Corpus      string         `yaml:"corpus"`
	StopWords   string         `yaml:"stop_words"`
	Output      string         `yaml:"output"`
	LogLevel    string         `yaml:"log_level"`
	LogFormat   string         `yaml:"log_format"`
	MetricsAddr string         `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Train:     train.DefaultSettings(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path (if non-empty) over the defaults and applies environment
// overrides. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
	if threads := os.Getenv(EnvThreads); threads != "" {
		n, err := strconv.Atoi(threads)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvThreads, err)
		}
		cfg.Train.Threads = n
	}
	return cfg, nil
}

// Validate checks the training settings and the required paths.
func (c *Config) Validate() error {
	if err := c.Train.Validate(); err != nil {
		return err
	}
	if c.Corpus == "" {
		return errors.New("config: corpus is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}
