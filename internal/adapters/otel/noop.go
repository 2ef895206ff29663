package otel

import (
	"context"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordSampleSize(ctx context.Context, m ports.SampleSizeMetrics) error {
	return nil
}

func (e *NoOpExporter) RecordCompositionValidation(ctx context.Context, m ports.ValidationMetrics) error {
	return nil
}

func (e *NoOpExporter) RecordTransition(ctx context.Context, m ports.TransitionMetrics) error {
	return nil
}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
