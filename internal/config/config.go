// Package config loads chatweave configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "chatweave.yaml"

// Config holds all chatweave settings.
type Config struct {
	// Normalizer controls the text normalization pipeline.
	Normalizer NormalizerConfig `yaml:"normalizer"`

	// OutputDir receives the written IR files.
	OutputDir string `yaml:"output_dir"`

	// IndexPath is the SQLite query index location.
	IndexPath string `yaml:"index_path"`
}

// NormalizerConfig configures the normalization pipeline.
type NormalizerConfig struct {
	// Strict turns post-condition violations and non-convergence into
	// errors instead of best-effort output.
	Strict bool `yaml:"strict"`

	// MaxIterations caps each pass's convergence loop. Zero means the
	// built-in default.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Normalizer: NormalizerConfig{
			Strict:        false,
			MaxIterations: 0,
		},
		OutputDir: "out",
		IndexPath: "chatweave.db",
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; the defaults apply. Environment overrides are applied
// last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHATWEAVE_STRICT"); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			c.Normalizer.Strict = strict
		}
	}
	if v := os.Getenv("CHATWEAVE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("CHATWEAVE_INDEX_PATH"); v != "" {
		c.IndexPath = v
	}
}
