package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "AUTH_TOKEN", "PORT", "CATALOG_FILE", "OTEL_ENABLED", "OTEL_ENDPOINT", "OTEL_INSECURE", "SHUTDOWN_TIMEOUT"} {
		t.Setenv("KAIROS_"+key, "")
		_ = os.Unsetenv("KAIROS_" + key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout 10s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Otel.Enabled {
		t.Error("expected OTEL disabled by default")
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database URL, got %q", cfg.Database.URL)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("KAIROS_DATABASE_URL", "libsql://kairos.turso.io")
	t.Setenv("KAIROS_AUTH_TOKEN", "secret")
	t.Setenv("KAIROS_PORT", "9090")
	t.Setenv("KAIROS_CATALOG_FILE", "/etc/kairos/catalog.yaml")
	t.Setenv("KAIROS_OTEL_ENABLED", "true")
	t.Setenv("KAIROS_OTEL_ENDPOINT", "localhost:4317")
	t.Setenv("KAIROS_OTEL_INSECURE", "true")
	t.Setenv("KAIROS_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.URL != "libsql://kairos.turso.io" || cfg.Database.AuthToken != "secret" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Port != 9090 || cfg.CatalogFile != "/etc/kairos/catalog.yaml" {
		t.Errorf("unexpected app config: port=%d catalog=%q", cfg.Port, cfg.CatalogFile)
	}
	if !cfg.Otel.Enabled || !cfg.Otel.Insecure || cfg.Otel.Endpoint != "localhost:4317" {
		t.Errorf("unexpected otel config: %+v", cfg.Otel)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("KAIROS_PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}
