package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when no config file exists at the searched locations.
var ErrNoConfig = errors.New("no config file")

// LocalNames are the repo-local config file names, in search order.
var LocalNames = []string{".pansweep.yml", ".pansweep.yaml", "pansweep.yml", "pansweep.yaml"}

// FileConfig is the on-disk YAML configuration shape for pansweep. Nil fields
// are unset and fall through to the next source.
type FileConfig struct {
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	MaxBytes        *int64  `yaml:"max_bytes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	Enable          *string `yaml:"enable,omitempty"`
	Disable         *string `yaml:"disable,omitempty"`
	NoColor         *bool   `yaml:"no_color,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	SkipTestCards   *bool   `yaml:"skip_test_cards,omitempty"`
	NoInlineIgnore  *bool   `yaml:"no_inline_ignore,omitempty"`
	TrackedOnly     *bool   `yaml:"tracked_only,omitempty"`
	Format          *string `yaml:"format,omitempty"`
	FailOn          *string `yaml:"fail_on,omitempty"`
	Timeout         *string `yaml:"timeout,omitempty"`
	Baseline        *string `yaml:"baseline,omitempty"`
	Audit           *bool   `yaml:"audit,omitempty"`
}

var failLevels = map[string]bool{"": true, "none": true, "low": true, "medium": true, "high": true}

// Validate checks the values that have a fixed vocabulary.
func (fc FileConfig) Validate() error {
	if fc.FailOn != nil && !failLevels[*fc.FailOn] {
		return fmt.Errorf("fail_on: unknown level %q", *fc.FailOn)
	}
	if fc.Timeout != nil && *fc.Timeout != "" {
		if _, err := time.ParseDuration(*fc.Timeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}
	if fc.Threads != nil && *fc.Threads < -1 {
		return fmt.Errorf("threads: must be -1 or more, got %d", *fc.Threads)
	}
	if fc.MaxBytes != nil && *fc.MaxBytes < 0 {
		return fmt.Errorf("max_bytes: must not be negative, got %d", *fc.MaxBytes)
	}
	if err := validGlobs("include", fc.Include); err != nil {
		return err
	}
	return validGlobs("exclude", fc.Exclude)
}

func validGlobs(field string, csv *string) error {
	if csv == nil {
		return nil
	}
	for _, g := range strings.Split(*csv, ",") {
		if g = strings.TrimSpace(g); g != "" && !doublestar.ValidatePattern(g) {
			return fmt.Errorf("%s: bad glob %q", field, g)
		}
	}
	return nil
}

// TimeoutDuration returns the parsed timeout, or 0 when unset.
func (fc FileConfig) TimeoutDuration() time.Duration {
	if fc.Timeout == nil {
		return 0
	}
	d, _ := time.ParseDuration(*fc.Timeout)
	return d
}

// LoadFile reads and validates a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(root string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNoConfig
}

// Dir returns the pansweep directory under $XDG_CONFIG_HOME or ~/.config.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "pansweep"), nil
}

// LoadGlobal loads config.yml from Dir.
func LoadGlobal() (FileConfig, error) {
	dir, err := Dir()
	if err != nil {
		return FileConfig{}, err
	}
	p := filepath.Join(dir, "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return FileConfig{}, ErrNoConfig
}

// Template is the starter config written by "pansweep config init".
const Template = `# pansweep configuration
# Comma-separated doublestar globs, relative to each input directory.
include: ""
exclude: "**/testdata/**"
# Files larger than this are reported as skipped (0 = no limit).
max_bytes: 0
# 0 = one worker per CPU, -1 = one goroutine per file.
threads: 0
# Comma-separated brand names, e.g. "Visa,Mastercard".
enable: ""
disable: ""
default_excludes: true
skip_test_cards: false
no_inline_ignore: false
tracked_only: false
format: table
fail_on: medium
timeout: ""
baseline: pansweep.baseline.json
audit: true
`
