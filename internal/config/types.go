package config

import (
	"time"

	"github.com/bianoble/snapkeep/internal/auditlog"
	"github.com/bianoble/snapkeep/internal/engine"
)

// Config represents the snapkeep.yaml configuration file. Every key is
// optional; command-line flags override file values.
type Config struct {
	Version      int    `yaml:"version"`
	Source       string `yaml:"source,omitempty"`
	Dest         string `yaml:"dest,omitempty"`
	Compress     bool   `yaml:"compress,omitempty"`
	Retries      int    `yaml:"retries,omitempty"`
	Keep         int    `yaml:"keep,omitempty"`
	DelaySeconds int    `yaml:"delay_seconds,omitempty"`
	Logfile      string `yaml:"logfile,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:      1,
		Retries:      engine.DefaultMaxRetries,
		Keep:         engine.DefaultKeep,
		DelaySeconds: int(engine.DefaultDelay / time.Second),
		Logfile:      auditlog.DefaultPath,
	}
}
