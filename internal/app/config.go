package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // project .hcl file
	RootDir    string // source tree the discovery engine scans
	OutDir     string // artifact tree root

	// ModeOverride, when non-empty, replaces the mode declared in the
	// project file ("shared" or "static").
	ModeOverride string

	PlanOnly bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.RootDir == "" {
		return nil, errors.New("RootDir is a required configuration field and cannot be empty")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("OutDir is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	return &cfg, nil
}
