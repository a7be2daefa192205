package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BootstrapPath string // hcl bootstrap file or directory
	PluginsPath   string // fallback auto-deploy dir when no bootstrap file is given
	Watch         bool   // fallback hot-deploy toggle, same condition

	LogFormat  string
	LogLevel   string
	CacheSize  int
	StatusPort int

	JobName string // name of the probe job Run resolves extensions for
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BootstrapPath == "" && cfg.PluginsPath == "" {
		return nil, errors.New("either a bootstrap file or a plugins directory is required")
	}
	if cfg.JobName == "" {
		cfg.JobName = "probe"
	}
	return &cfg, nil
}
