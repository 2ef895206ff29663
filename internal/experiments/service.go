// Package experiments manages the definition and lifecycle of A/B tests.
package experiments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/designer"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// Service coordinates experiment persistence, derived estimates and status changes.
type Service struct {
	repo    ports.ExperimentRepository
	dir     domain.AudienceDirectory
	metrics ports.MetricsExporter
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo ports.ExperimentRepository, dir domain.AudienceDirectory, metrics ports.MetricsExporter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		dir:     dir,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SaveOptions controls how Save treats derived fields.
type SaveOptions struct {
	// ManualSampleSize keeps the caller's Statistics.SampleSize instead of
	// recomputing it. A non-positive value is recomputed regardless.
	ManualSampleSize bool
}

// Save creates the experiment when it has no ID and updates it otherwise.
// New experiments always start as drafts; updates keep the stored lifecycle
// fields and are refused once the experiment has been started. The audience
// estimate and the sample size are recomputed before persisting.
func (s *Service) Save(ctx context.Context, e *domain.ExperimentConfig, opts SaveOptions) (*domain.ExperimentConfig, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return nil, fmt.Errorf("%w: experiment name is required", domain.ErrInvalidInput)
	}

	now := s.now()
	var existing *domain.ExperimentConfig
	if e.ID != "" {
		var err error
		existing, err = s.repo.GetByID(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("experiment %s: %w", e.ID, domain.ErrNotFound)
		}
		if !existing.Editable() {
			return nil, fmt.Errorf("%w: experiment %s is %s and can no longer be edited", domain.ErrInvalidTransition, e.ID, existing.Status)
		}
	}

	if other, err := s.repo.GetByName(ctx, e.Name); err != nil {
		return nil, err
	} else if other != nil && other.ID != e.ID {
		return nil, fmt.Errorf("%w: experiment name %q is already used", domain.ErrInvalidInput, e.Name)
	}

	if e.Statistics == (domain.StatisticalConfig{}) {
		e.Statistics = domain.DefaultStatisticalConfig()
	}
	assignIDs(e)
	if err := s.derive(ctx, e, opts); err != nil {
		return nil, err
	}

	if existing == nil {
		e.ID = uuid.New().String()
		e.Status = domain.ExperimentDraft
		e.StartedAt, e.EndedAt = nil, nil
		e.CreatedAt, e.UpdatedAt = now, now
		if err := s.repo.Create(ctx, e); err != nil {
			return nil, err
		}
		s.log.Info("experiment created", zap.String("id", e.ID), zap.String("name", e.Name))
		return e, nil
	}

	e.Status = existing.Status
	e.StartedAt, e.EndedAt = existing.StartedAt, existing.EndedAt
	e.CreatedAt, e.UpdatedAt = existing.CreatedAt, now
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("experiment updated", zap.String("id", e.ID), zap.String("name", e.Name))
	return e, nil
}

// derive fills the audience estimate and, unless overridden, the sample size.
func (s *Service) derive(ctx context.Context, e *domain.ExperimentConfig, opts SaveOptions) error {
	est, err := domain.EstimateAudience(e.Audience, s.dir)
	if err != nil {
		return err
	}
	e.Audience.EstimatedSize = est.Size

	cfg := e.Statistics
	if !opts.ManualSampleSize || cfg.SampleSize <= 0 {
		cfg.SampleSize = 0
	}
	d := designer.New(cfg, e.Traffic.DailyTrafficPerVariant)
	if err := d.Err(); err != nil {
		return err
	}
	e.Statistics = d.Config()

	summary := d.Summary()
	if err := s.metrics.RecordSampleSize(ctx, ports.SampleSizeMetrics{
		ConfidenceLevel:  cfg.ConfidenceLevel,
		StatisticalPower: cfg.StatisticalPower,
		SampleSize:       summary.Recommended,
		DurationDays:     summary.DurationDays,
	}); err != nil {
		s.log.Warn("failed to record sample size metrics", zap.Error(err))
	}
	return nil
}

func assignIDs(e *domain.ExperimentConfig) {
	for i := range e.Variants {
		if e.Variants[i].ID == "" {
			e.Variants[i].ID = uuid.New().String()
		}
	}
	for i := range e.Goals {
		if e.Goals[i].ID == "" {
			e.Goals[i].ID = uuid.New().String()
		}
	}
}

// Get returns the experiment with id or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("experiment %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// Resolve looks an experiment up by ID first and by name second.
func (s *Service) Resolve(ctx context.Context, ref string) (*domain.ExperimentConfig, error) {
	e, err := s.repo.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if e != nil {
		return e, nil
	}
	e, err = s.repo.GetByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("experiment %s: %w", ref, domain.ErrNotFound)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, filter ports.ExperimentFilter) ([]*domain.ExperimentConfig, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes an experiment. Running experiments must be stopped first.
func (s *Service) Delete(ctx context.Context, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == domain.ExperimentActive {
		return fmt.Errorf("%w: stop experiment %s before deleting it", domain.ErrInvalidTransition, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("experiment deleted", zap.String("id", id))
	return nil
}

// Start activates a draft, testing or paused experiment after validating it.
func (s *Service) Start(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	return s.transition(ctx, id, (*domain.ExperimentConfig).Start)
}

// Test moves a draft experiment into QA.
func (s *Service) Test(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	return s.transition(ctx, id, (*domain.ExperimentConfig).Test)
}

// Pause suspends an active experiment.
func (s *Service) Pause(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	return s.transition(ctx, id, (*domain.ExperimentConfig).Pause)
}

// Stop completes an active or paused experiment.
func (s *Service) Stop(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	return s.transition(ctx, id, (*domain.ExperimentConfig).Stop)
}

func (s *Service) transition(ctx context.Context, id string, apply func(*domain.ExperimentConfig, time.Time) error) (*domain.ExperimentConfig, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := e.Status
	if err := apply(e, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("experiment status changed",
		zap.String("id", e.ID),
		zap.String("from", string(from)),
		zap.String("to", string(e.Status)),
	)
	if err := s.metrics.RecordTransition(ctx, ports.TransitionMetrics{
		Entity: "experiment",
		ID:     e.ID,
		From:   string(from),
		To:     string(e.Status),
	}); err != nil {
		s.log.Warn("failed to record transition metrics", zap.Error(err))
	}
	return e, nil
}
