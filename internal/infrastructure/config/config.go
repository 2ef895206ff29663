package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable read by this package.
const Prefix = "KAIROS"

// Database holds libSQL connection settings. An empty URL selects the local
// file database in the XDG data directory.
type Database struct {
	URL       string `envconfig:"DATABASE_URL"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
}

// Otel holds OTLP metrics exporter settings.
type Otel struct {
	Enabled  bool   `envconfig:"OTEL_ENABLED"`
	Endpoint string `envconfig:"OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"OTEL_INSECURE"`
}

// App holds the full runtime configuration.
type App struct {
	Database        Database      `ignored:"true"`
	Otel            Otel          `ignored:"true"`
	Port            int           `envconfig:"PORT" default:"8080"`
	CatalogFile     string        `envconfig:"CATALOG_FILE"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadDatabase loads database configuration from environment variables.
func LoadDatabase() (*Database, error) {
	var cfg Database
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads the application configuration from environment variables.
func Load() (*App, error) {
	var cfg App
	if err := envconfig.Process(Prefix, &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process(Prefix, &cfg.Otel); err != nil {
		return nil, err
	}
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
