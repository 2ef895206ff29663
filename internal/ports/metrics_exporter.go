package ports

import (
	"context"
)

// MetricsExporter exports designer and lifecycle metrics to an external observability system.
type MetricsExporter interface {
	// RecordSampleSize records a completed sample size estimate.
	RecordSampleSize(ctx context.Context, m SampleSizeMetrics) error
	// RecordCompositionValidation records the outcome of a composition validation.
	RecordCompositionValidation(ctx context.Context, m ValidationMetrics) error
	// RecordTransition records a lifecycle status change.
	RecordTransition(ctx context.Context, m TransitionMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

type SampleSizeMetrics struct {
	ConfidenceLevel  int
	StatisticalPower int
	SampleSize       int
	DurationDays     int
}

type ValidationMetrics struct {
	CompositionID string
	Score         int
	ErrorCount    int
	WarningCount  int
	Valid         bool
}

// TransitionMetrics describes a status change of an experiment or composition.
type TransitionMetrics struct {
	Entity string // "experiment" or "composition"
	ID     string
	From   string
	To     string
}
