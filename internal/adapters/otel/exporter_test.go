package otel

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

func newTestExporter(t *testing.T) (*Exporter, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	exp, err := newExporter(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("newExporter failed: %v", err)
	}
	t.Cleanup(func() { _ = exp.Close(context.Background()) })
	return exp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestExporter_RecordSampleSize(t *testing.T) {
	exp, reader := newTestExporter(t)
	ctx := context.Background()

	for range 2 {
		if err := exp.RecordSampleSize(ctx, ports.SampleSizeMetrics{ConfidenceLevel: 95, StatisticalPower: 80, SampleSize: 122161, DurationDays: 123}); err != nil {
			t.Fatalf("RecordSampleSize failed: %v", err)
		}
	}

	got := collect(t, reader)
	if n := counterTotal(t, got["kairos_sample_size_estimates_total"]); n != 2 {
		t.Errorf("expected 2 estimates, got %d", n)
	}

	hist, ok := got["kairos_sample_size"].(metricdata.Histogram[int64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("expected one sample size histogram series, got %#v", got["kairos_sample_size"])
	}
	if hist.DataPoints[0].Count != 2 || hist.DataPoints[0].Sum != 2*122161 {
		t.Errorf("unexpected histogram point: count=%d sum=%d", hist.DataPoints[0].Count, hist.DataPoints[0].Sum)
	}
}

func TestExporter_RecordValidationAndTransition(t *testing.T) {
	exp, reader := newTestExporter(t)
	ctx := context.Background()

	_ = exp.RecordCompositionValidation(ctx, ports.ValidationMetrics{Score: 90, Valid: true})
	_ = exp.RecordCompositionValidation(ctx, ports.ValidationMetrics{Score: 50, ErrorCount: 2})
	_ = exp.RecordTransition(ctx, ports.TransitionMetrics{Entity: "experiment", ID: "e1", From: "draft", To: "active"})

	got := collect(t, reader)
	if n := counterTotal(t, got["kairos_composition_validations_total"]); n != 2 {
		t.Errorf("expected 2 validations, got %d", n)
	}
	if n := counterTotal(t, got["kairos_status_transitions_total"]); n != 1 {
		t.Errorf("expected 1 transition, got %d", n)
	}
}

func TestNewExporter_Disabled(t *testing.T) {
	if _, err := NewExporter(context.Background(), Config{Enabled: false, Endpoint: "localhost:4317"}); err == nil {
		t.Error("expected error when disabled")
	}
	if _, err := NewExporter(context.Background(), Config{Enabled: true}); err == nil {
		t.Error("expected error without endpoint")
	}
}
