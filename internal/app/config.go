package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RegistryPath string // extra .hcl manifests overlaying the embedded registry
	AssetsDir    string // directory backing local-provider sources
	Groups       []string

	LogFormat  string
	LogLevel   string
	StatusPort int
	Languages  []string // prism language components to load with the code group
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Groups) == 0 {
		return nil, errors.New("at least one resource group must be requested")
	}
	return &cfg, nil
}
