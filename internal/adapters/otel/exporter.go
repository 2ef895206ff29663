package otel

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

const (
	serviceName    = "kairos"
	serviceVersion = "1.0.0"
)

// Exporter exports designer and lifecycle metrics to an OTEL Collector.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	meter            metric.Meter
	estimatesTotal   metric.Int64Counter
	sampleSizeHist   metric.Int64Histogram
	durationHist     metric.Int64Histogram
	validationsTotal metric.Int64Counter
	scoreHist        metric.Int64Histogram
	transitionsTotal metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter pushing over OTLP/gRPC.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

// newExporter registers the kairos instruments on provider.
func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	estimatesTotal, err := meter.Int64Counter(
		"kairos_sample_size_estimates_total",
		metric.WithDescription("Total sample size estimates computed"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating estimates counter: %w", err)
	}

	sampleSizeHist, err := meter.Int64Histogram(
		"kairos_sample_size",
		metric.WithDescription("Required sample size per variant"),
		metric.WithUnit("{visitor}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sample size histogram: %w", err)
	}

	durationHist, err := meter.Int64Histogram(
		"kairos_experiment_duration_days",
		metric.WithDescription("Estimated experiment duration in days"),
		metric.WithUnit("d"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	validationsTotal, err := meter.Int64Counter(
		"kairos_composition_validations_total",
		metric.WithDescription("Total composition validations"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating validations counter: %w", err)
	}

	scoreHist, err := meter.Int64Histogram(
		"kairos_composition_validation_score",
		metric.WithDescription("Composition validation score (0-100)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating score histogram: %w", err)
	}

	transitionsTotal, err := meter.Int64Counter(
		"kairos_status_transitions_total",
		metric.WithDescription("Total lifecycle status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	return &Exporter{
		provider:         provider,
		meter:            meter,
		estimatesTotal:   estimatesTotal,
		sampleSizeHist:   sampleSizeHist,
		durationHist:     durationHist,
		validationsTotal: validationsTotal,
		scoreHist:        scoreHist,
		transitionsTotal: transitionsTotal,
	}, nil
}

func (e *Exporter) RecordSampleSize(ctx context.Context, m ports.SampleSizeMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("confidence_level", strconv.Itoa(m.ConfidenceLevel)),
		attribute.String("statistical_power", strconv.Itoa(m.StatisticalPower)),
	)

	e.estimatesTotal.Add(ctx, 1, opt)
	e.sampleSizeHist.Record(ctx, int64(m.SampleSize), opt)
	if m.DurationDays > 0 {
		e.durationHist.Record(ctx, int64(m.DurationDays), opt)
	}
	return nil
}

func (e *Exporter) RecordCompositionValidation(ctx context.Context, m ports.ValidationMetrics) error {
	opt := metric.WithAttributes(attribute.Bool("valid", m.Valid))

	e.validationsTotal.Add(ctx, 1, opt)
	e.scoreHist.Record(ctx, int64(m.Score), opt)
	return nil
}

func (e *Exporter) RecordTransition(ctx context.Context, m ports.TransitionMetrics) error {
	e.transitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", m.Entity),
		attribute.String("from", m.From),
		attribute.String("to", m.To),
	))
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
