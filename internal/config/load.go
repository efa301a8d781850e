// Package config loads the optional snapkeep.yaml defaults file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the file at path over the defaults and validates the result.
// Unset keys keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d (only version 1 is supported)", cfg.Version))
	}
	if cfg.Retries < 0 {
		errs = append(errs, fmt.Sprintf("retries must be >= 0, got %d", cfg.Retries))
	}
	if cfg.Keep < 0 {
		errs = append(errs, fmt.Sprintf("keep must be >= 0, got %d", cfg.Keep))
	}
	if cfg.DelaySeconds < 0 {
		errs = append(errs, fmt.Sprintf("delay_seconds must be >= 0, got %d", cfg.DelaySeconds))
	}

	return errs
}
