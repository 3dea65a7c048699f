package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	ManifestPath string // platform description (.hcl)

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
