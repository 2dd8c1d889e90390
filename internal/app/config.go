package app

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FeaturesPath string // .feature files
	SettingsPath string // .hcl files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int // 0 defers to the settings file

	// NameFilter selects scenarios whose name matches this expression.
	NameFilter string
	// Strict makes unimplemented steps fatal and treats skipped scenarios as
	// a failed run.
	Strict bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.FeaturesPath == "" {
		return nil, errors.New("FeaturesPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("WorkerCount must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.NameFilter != "" {
		if _, err := regexp2.Compile(cfg.NameFilter, regexp2.None); err != nil {
			return nil, fmt.Errorf("invalid name filter %q: %w", cfg.NameFilter, err)
		}
	}
	return &cfg, nil
}
