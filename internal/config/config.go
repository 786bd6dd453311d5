package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "ultramerge.yaml"
	DefaultPattern = "*.xml"
)

type Config struct {
	// Parallel is the number of directory entries merged concurrently.
	Parallel     int    `yaml:"parallel"`
	Pattern      string `yaml:"pattern"`
	NoClobber    bool   `yaml:"no_clobber"`
	VerifyInputs bool   `yaml:"verify_inputs"`
}

func Default() *Config {
	return &Config{Parallel: 1, Pattern: DefaultPattern}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional loads path, falling back to Default when the file does not
// exist and was not asked for explicitly.
func LoadOptional(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects a negative parallelism or a malformed pattern and fills in
// defaults for zero values.
func (cfg *Config) Validate() error {
	if cfg.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative")
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = 1
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return fmt.Errorf("pattern %q: %w", cfg.Pattern, err)
	}
	return nil
}
