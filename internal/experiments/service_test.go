package experiments

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/catalog"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type recordingMetrics struct {
	sampleSizes []ports.SampleSizeMetrics
	transitions []ports.TransitionMetrics
}

func (m *recordingMetrics) RecordSampleSize(ctx context.Context, s ports.SampleSizeMetrics) error {
	m.sampleSizes = append(m.sampleSizes, s)
	return nil
}

func (m *recordingMetrics) RecordCompositionValidation(ctx context.Context, v ports.ValidationMetrics) error {
	return nil
}

func (m *recordingMetrics) RecordTransition(ctx context.Context, t ports.TransitionMetrics) error {
	m.transitions = append(m.transitions, t)
	return nil
}

func (m *recordingMetrics) Close(ctx context.Context) error { return nil }

func newTestService(repo *MockRepository) (*Service, *recordingMetrics) {
	metrics := &recordingMetrics{}
	svc := NewService(repo, catalog.Default(), metrics, zap.NewNop())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, metrics
}

func draftExperiment() *domain.ExperimentConfig {
	return &domain.ExperimentConfig{
		Name: "checkout-button",
		Variants: []domain.Variant{
			{Name: "Control", IsControl: true, TrafficPercent: 50},
			{Name: "Green", TrafficPercent: 50},
		},
		Audience:   domain.AudienceConfig{SegmentIDs: []string{"seg-mobile"}},
		Goals:      []domain.GoalConfig{{Name: "Purchase", Type: domain.GoalConversion, IsPrimary: true}},
		Traffic:    domain.TrafficConfig{AllocationPercent: 100, DailyTrafficPerVariant: 1000},
		Statistics: domain.DefaultStatisticalConfig(),
	}
}

func TestService_SaveCreatesDraft(t *testing.T) {
	var created *domain.ExperimentConfig
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, e *domain.ExperimentConfig) error {
			created = e
			return nil
		},
	}
	svc, metrics := newTestService(repo)

	in := draftExperiment()
	in.Status = domain.ExperimentActive
	got, err := svc.Save(context.Background(), in, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Status != domain.ExperimentDraft {
		t.Errorf("expected new experiment to be a draft, got %s", got.Status)
	}
	if !got.CreatedAt.Equal(fixedNow) || !got.UpdatedAt.Equal(fixedNow) {
		t.Errorf("expected timestamps from clock, got %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Statistics.SampleSize != 122161 {
		t.Errorf("expected recomputed sample size 122161, got %d", got.Statistics.SampleSize)
	}
	if got.Audience.EstimatedSize != 98000 {
		t.Errorf("expected audience estimate from the mobile segment, got %d", got.Audience.EstimatedSize)
	}
	for _, v := range got.Variants {
		if v.ID == "" {
			t.Errorf("expected variant %q to get an ID", v.Name)
		}
	}
	if len(metrics.sampleSizes) != 1 || metrics.sampleSizes[0].DurationDays != 123 {
		t.Errorf("expected one sample size metric with 123 days, got %+v", metrics.sampleSizes)
	}
}

func TestService_SaveSampleSizeOverride(t *testing.T) {
	svc, _ := newTestService(&MockRepository{})

	in := draftExperiment()
	in.Statistics.SampleSize = 5000
	got, err := svc.Save(context.Background(), in, SaveOptions{ManualSampleSize: true})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got.Statistics.SampleSize != 5000 {
		t.Errorf("expected manual sample size to be kept, got %d", got.Statistics.SampleSize)
	}

	in = draftExperiment()
	in.Statistics.SampleSize = 5000
	got, err = svc.Save(context.Background(), in, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got.Statistics.SampleSize != 122161 {
		t.Errorf("expected recomputation without override, got %d", got.Statistics.SampleSize)
	}
}

func TestService_SaveDefaultsEmptyStatistics(t *testing.T) {
	svc, _ := newTestService(&MockRepository{})

	in := draftExperiment()
	in.Statistics = domain.StatisticalConfig{}
	got, err := svc.Save(context.Background(), in, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got.Statistics.ConfidenceLevel != 95 || got.Statistics.SampleSize != 122161 {
		t.Errorf("expected default statistics, got %+v", got.Statistics)
	}
}

func TestService_SaveRejects(t *testing.T) {
	tests := []struct {
		name    string
		repo    *MockRepository
		mutate  func(*domain.ExperimentConfig)
		wantErr error
	}{
		{
			name:    "blank name",
			repo:    &MockRepository{},
			mutate:  func(e *domain.ExperimentConfig) { e.Name = "  " },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "duplicate name",
			repo: &MockRepository{
				GetByNameFunc: func(ctx context.Context, name string) (*domain.ExperimentConfig, error) {
					return &domain.ExperimentConfig{ID: "other", Name: name}, nil
				},
			},
			mutate:  func(*domain.ExperimentConfig) {},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown segment",
			repo:    &MockRepository{},
			mutate:  func(e *domain.ExperimentConfig) { e.Audience.SegmentIDs = []string{"nope"} },
			wantErr: domain.ErrUnknownSegment,
		},
		{
			name:    "unsupported confidence",
			repo:    &MockRepository{},
			mutate:  func(e *domain.ExperimentConfig) { e.Statistics.ConfidenceLevel = 97 },
			wantErr: domain.ErrUnsupportedConfidence,
		},
		{
			name:    "update of missing experiment",
			repo:    &MockRepository{},
			mutate:  func(e *domain.ExperimentConfig) { e.ID = "missing" },
			wantErr: domain.ErrNotFound,
		},
		{
			name: "update of running experiment",
			repo: &MockRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
					return &domain.ExperimentConfig{ID: id, Status: domain.ExperimentActive}, nil
				},
			},
			mutate:  func(e *domain.ExperimentConfig) { e.ID = "running" },
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.repo)
			in := draftExperiment()
			tt.mutate(in)

			_, err := svc.Save(context.Background(), in, SaveOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_SaveUpdateKeepsLifecycleFields(t *testing.T) {
	created := fixedNow.Add(-48 * time.Hour)
	stored := draftExperiment()
	stored.ID = "exp-1"
	stored.Status = domain.ExperimentTesting
	stored.CreatedAt = created

	var updated *domain.ExperimentConfig
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
			return stored, nil
		},
		GetByNameFunc: func(ctx context.Context, name string) (*domain.ExperimentConfig, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, e *domain.ExperimentConfig) error {
			updated = e
			return nil
		},
	}
	svc, _ := newTestService(repo)

	in := draftExperiment()
	in.ID = "exp-1"
	in.Status = domain.ExperimentCompleted
	in.Hypothesis = "changed"
	if _, err := svc.Save(context.Background(), in, SaveOptions{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if updated.Status != domain.ExperimentTesting {
		t.Errorf("expected stored status to be kept, got %s", updated.Status)
	}
	if !updated.CreatedAt.Equal(created) || !updated.UpdatedAt.Equal(fixedNow) {
		t.Errorf("unexpected timestamps %v / %v", updated.CreatedAt, updated.UpdatedAt)
	}
	if updated.Hypothesis != "changed" {
		t.Errorf("expected hypothesis update, got %q", updated.Hypothesis)
	}
}

func TestService_Lifecycle(t *testing.T) {
	stored := draftExperiment()
	stored.ID = "exp-1"
	stored.Status = domain.ExperimentDraft
	stored.Variants[0].ID = "v1"
	stored.Variants[1].ID = "v2"

	updates := 0
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
			if id != "exp-1" {
				return nil, nil
			}
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, e *domain.ExperimentConfig) error {
			updates++
			stored = e
			return nil
		},
	}
	svc, metrics := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Pause(ctx, "exp-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected pausing a draft to fail, got %v", err)
	}

	started, err := svc.Start(ctx, "exp-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.Status != domain.ExperimentActive || started.StartedAt == nil || !started.StartedAt.Equal(fixedNow) {
		t.Errorf("unexpected started experiment: %+v", started)
	}

	if err := svc.Delete(ctx, "exp-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected deleting a running experiment to fail, got %v", err)
	}

	if _, err := svc.Pause(ctx, "exp-1"); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	stopped, err := svc.Stop(ctx, "exp-1")
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if stopped.Status != domain.ExperimentCompleted || stopped.EndedAt == nil {
		t.Errorf("expected completed experiment with end time, got %+v", stopped)
	}

	if updates != 3 {
		t.Errorf("expected 3 persisted transitions, got %d", updates)
	}
	want := []string{"draft->active", "active->paused", "paused->completed"}
	if len(metrics.transitions) != len(want) {
		t.Fatalf("expected %d transition metrics, got %d", len(want), len(metrics.transitions))
	}
	for i, m := range metrics.transitions {
		if got := m.From + "->" + m.To; got != want[i] || m.Entity != "experiment" {
			t.Errorf("transition %d: expected %s, got %s (%s)", i, want[i], got, m.Entity)
		}
	}

	if _, err := svc.Start(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_TestThenStart(t *testing.T) {
	stored := draftExperiment()
	stored.ID = "exp-1"
	stored.Status = domain.ExperimentDraft

	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, e *domain.ExperimentConfig) error {
			stored = e
			return nil
		},
	}
	svc, metrics := newTestService(repo)
	ctx := context.Background()

	tested, err := svc.Test(ctx, "exp-1")
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if tested.Status != domain.ExperimentTesting || tested.StartedAt != nil {
		t.Errorf("expected testing experiment without start time, got %+v", tested)
	}

	if _, err := svc.Test(ctx, "exp-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Start(ctx, "exp-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := []string{"draft->testing", "testing->active"}
	if len(metrics.transitions) != len(want) {
		t.Fatalf("expected %d transition metrics, got %d", len(want), len(metrics.transitions))
	}
	for i, m := range metrics.transitions {
		if got := m.From + "->" + m.To; got != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestService_StartRejectsInvalidExperiment(t *testing.T) {
	stored := draftExperiment()
	stored.ID = "exp-1"
	stored.Status = domain.ExperimentDraft
	stored.Variants[1].TrafficPercent = 30

	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, e *domain.ExperimentConfig) error {
			t.Error("invalid experiment must not be persisted")
			return nil
		},
	}
	svc, _ := newTestService(repo)

	if _, err := svc.Start(context.Background(), "exp-1"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Resolve(t *testing.T) {
	repo := &MockRepository{
		GetByNameFunc: func(ctx context.Context, name string) (*domain.ExperimentConfig, error) {
			if name == "checkout-button" {
				return &domain.ExperimentConfig{ID: "exp-1", Name: name}, nil
			}
			return nil, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.Resolve(context.Background(), "checkout-button")
	if err != nil || got.ID != "exp-1" {
		t.Fatalf("expected lookup by name, got %+v, %v", got, err)
	}
	if _, err := svc.Resolve(context.Background(), "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListPassesFilter(t *testing.T) {
	status := domain.ExperimentPaused
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter ports.ExperimentFilter) ([]*domain.ExperimentConfig, error) {
			if filter.Status == nil || *filter.Status != status {
				t.Errorf("expected status filter %s, got %+v", status, filter.Status)
			}
			return []*domain.ExperimentConfig{{ID: "p"}}, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.List(context.Background(), ports.ExperimentFilter{Status: &status})
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}
}
