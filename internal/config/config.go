package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/report"
)

// Config holds all configuration for mca
type Config struct {
	// Analysis run by default: reaching, live or sign
	Analysis string `yaml:"analysis" env:"MCA_ANALYSIS"`

	// Solver used by default: chaotic, fifo, lifo or roundrobin
	Solver string `yaml:"solver" env:"MCA_SOLVER"`

	// Output format: text, json, yaml or msgpack
	Format string `yaml:"format" env:"MCA_FORMAT"`

	// Report cache
	CacheEnabled bool   `yaml:"cache_enabled" env:"MCA_CACHE_ENABLED"`
	CachePath    string `yaml:"cache_path" env:"MCA_CACHE_PATH"`
	CacheSize    int    `yaml:"cache_size" env:"MCA_CACHE_SIZE"`

	// Logging
	Verbose bool `yaml:"verbose" env:"MCA_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis:     string(analyze.SignDetection),
		Solver:       string(analyze.RoundRobin),
		Format:       string(report.FormatText),
		CacheEnabled: false,
		CachePath:    defaultCachePath(),
		CacheSize:    128,
		Verbose:      false,
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mca", "cache", "reports.msgpack")
	}
	return filepath.Join(home, ".mca", "cache", "reports.msgpack")
}

// GlobalConfigPath returns the global config file path (~/.mca/config.yaml)
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mca", "config.yaml")
	}
	return filepath.Join(home, ".mca", "config.yaml")
}

// ProjectConfigPath returns the project-level config file path (./.mca/config.yaml)
func ProjectConfigPath() string {
	return filepath.Join(".mca", "config.yaml")
}

// EffectivePath returns the highest priority config file that exists, or
// "" when only defaults and the environment apply.
func EffectivePath() string {
	for _, path := range []string{ProjectConfigPath(), GlobalConfigPath()} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.mca/config.yaml)
// 2. Environment variables
// 3. Global config (~/.mca/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, GlobalConfigPath()); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := mergeFile(cfg, ProjectConfigPath()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile overlays the settings of a YAML file. A missing file is skipped.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides sets every field whose env tag names a non-empty
// variable. Values that do not parse, and non-positive integers, are ignored.
func applyEnvOverrides(cfg *Config) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Bool:
			field.SetBool(parseBool(raw))
		case reflect.Int:
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				field.SetInt(int64(n))
			}
		}
	}
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// Validate checks that every field names something mca supports
func (c *Config) Validate() error {
	if _, err := analyze.ParseAnalysis(c.Analysis); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}
	if _, err := analyze.ParseSolver(c.Solver); err != nil {
		return fmt.Errorf("invalid solver: %w", err)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if c.CacheEnabled {
		if c.CachePath == "" {
			return fmt.Errorf("cache_path is required when cache_enabled is true")
		}
		if c.CacheSize <= 0 {
			return fmt.Errorf("cache_size must be positive")
		}
	}
	return nil
}

// Options converts the configuration into analysis run options. The cache
// is left to the caller.
func (c *Config) Options() (analyze.Options, error) {
	a, err := analyze.ParseAnalysis(c.Analysis)
	if err != nil {
		return analyze.Options{}, err
	}
	s, err := analyze.ParseSolver(c.Solver)
	if err != nil {
		return analyze.Options{}, err
	}
	return analyze.Options{Analysis: a, Solver: s}, nil
}
