package otel

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
)

// Config holds OTEL exporter configuration.
type Config = config.Otel

// LoadConfig loads OTEL configuration from KAIROS_OTEL_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(config.Prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
