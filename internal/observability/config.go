package observability

import "github.com/ajyalhq/ajyal/internal/config"

// Config is the observability slice of application configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled      bool
	ExporterEndpoint string
}

func LoadConfig(cfg config.Config) Config {
	return Config{
		ServiceName:      cfg.AppName,
		Environment:      cfg.Environment,
		Version:          cfg.AppVersion,
		LogLevel:         cfg.LogLevel,
		LogFormat:        cfg.LogFormat,
		OtelEnabled:      cfg.OtelEnabled,
		ExporterEndpoint: cfg.OTLPEndpoint,
	}
}

func (c Config) Debug() bool {
	return c.Environment != "production"
}
