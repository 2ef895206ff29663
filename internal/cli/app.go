package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/catalog"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/otel"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/turso"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/compositions"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/experiments"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/migrate"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	DB           *turso.DB
	Config       *config.App
	Experiments  *experiments.Service
	Compositions *compositions.Service
	Directory    ports.Directory
	Metrics      ports.MetricsExporter
	Log          *zap.Logger
}

// NewAppContext loads configuration, opens and migrates the database and
// wires the services.
func NewAppContext(ctx context.Context, log *zap.Logger) (*AppContext, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dir, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	db, err := turso.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := migrate.NewRunner(db.DB, log).Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	metrics := newMetrics(ctx, cfg.Otel, log)
	repos := turso.NewRepositories(db.DB)

	return &AppContext{
		DB:           db,
		Config:       cfg,
		Experiments:  experiments.NewService(repos.Experiments, dir, metrics, log),
		Compositions: compositions.NewService(repos.Compositions, metrics, log),
		Directory:    dir,
		Metrics:      metrics,
		Log:          log,
	}, nil
}

// newMetrics returns the OTLP exporter when enabled, falling back to a no-op
// exporter if it is disabled or cannot be created.
func newMetrics(ctx context.Context, cfg config.Otel, log *zap.Logger) ports.MetricsExporter {
	if !cfg.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, cfg)
	if err != nil {
		log.Warn("metrics export disabled", zap.Error(err))
		return otel.NewNoOpExporter()
	}
	return exp
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	if a.Metrics != nil {
		if err := a.Metrics.Close(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("failed to flush metrics", zap.Error(err))
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
