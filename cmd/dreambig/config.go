package main

import (
	"fmt"

	"github.com/dreambig/dreambig-sg/internal/config"
)

// loadAppConfig reads the environment and, when path is set, overlays the
// JSON config file on it.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	merged := fileCfg.MergeWithDefaults(*cfg)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &merged, nil
}
