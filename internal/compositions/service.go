// Package compositions manages atom compositions: graph validation, storage
// and the draft/testing/active lifecycle.
package compositions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

type Service struct {
	repo    ports.CompositionRepository
	metrics ports.MetricsExporter
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo ports.CompositionRepository, metrics ports.MetricsExporter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Validate checks a composition graph without persisting it.
func (s *Service) Validate(ctx context.Context, c *domain.Composition) domain.CompositionValidation {
	v := c.Validate()
	if err := s.metrics.RecordCompositionValidation(ctx, ports.ValidationMetrics{
		CompositionID: c.ID,
		Score:         v.Score,
		ErrorCount:    len(v.Errors),
		WarningCount:  len(v.Warnings),
		Valid:         v.IsValid,
	}); err != nil {
		s.log.Warn("failed to record validation metrics", zap.Error(err))
	}
	return v
}

// ValidationError carries the failed validation of a composition.
type ValidationError struct {
	Validation domain.CompositionValidation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Validation.Errors))
	for i, issue := range e.Validation.Errors {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("%s: %s", domain.ErrInvalidComposition, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidComposition
}

// Save creates the composition when it has no ID and updates it otherwise.
// Invalid graphs are rejected with a *ValidationError. Saving an active
// composition is refused; deactivate it first.
func (s *Service) Save(ctx context.Context, c *domain.Composition) (*domain.Composition, domain.CompositionValidation, error) {
	c.Name = strings.TrimSpace(c.Name)

	v := s.Validate(ctx, c)
	if !c.CanSave(v) {
		return nil, v, &ValidationError{Validation: v}
	}

	now := s.now()
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.Status = domain.CompositionDraft
		c.CreatedAt, c.UpdatedAt = now, now
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, v, err
		}
		s.log.Info("composition created", zap.String("id", c.ID), zap.String("name", c.Name), zap.Int("score", v.Score))
		return c, v, nil
	}

	existing, err := s.Get(ctx, c.ID)
	if err != nil {
		return nil, v, err
	}
	if existing.Status == domain.CompositionActive {
		return nil, v, fmt.Errorf("%w: composition %s is active and must be deactivated before editing", domain.ErrInvalidTransition, c.ID)
	}

	c.Status = existing.Status
	c.CreatedAt, c.UpdatedAt = existing.CreatedAt, now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, v, err
	}
	s.log.Info("composition updated", zap.String("id", c.ID), zap.String("name", c.Name), zap.Int("score", v.Score))
	return c, v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Composition, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("composition %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Composition, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == domain.CompositionActive {
		return fmt.Errorf("%w: deactivate composition %s before deleting it", domain.ErrInvalidTransition, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("composition deleted", zap.String("id", id))
	return nil
}

// Test moves a valid draft (or reopened) composition into testing.
func (s *Service) Test(ctx context.Context, id string) (*domain.Composition, error) {
	return s.transition(ctx, id, func(c *domain.Composition, v domain.CompositionValidation, now time.Time) error {
		if c.Status == domain.CompositionInactive {
			if err := c.Reopen(now); err != nil {
				return err
			}
		}
		return c.StartTesting(v, now)
	})
}

// Deploy activates a valid composition that is in testing.
func (s *Service) Deploy(ctx context.Context, id string) (*domain.Composition, error) {
	return s.transition(ctx, id, (*domain.Composition).Deploy)
}

// Deactivate takes a composition out of service.
func (s *Service) Deactivate(ctx context.Context, id string) (*domain.Composition, error) {
	return s.transition(ctx, id, func(c *domain.Composition, _ domain.CompositionValidation, now time.Time) error {
		return c.Deactivate(now)
	})
}

func (s *Service) transition(ctx context.Context, id string, apply func(*domain.Composition, domain.CompositionValidation, time.Time) error) (*domain.Composition, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := c.Status
	v := s.Validate(ctx, c)
	if err := apply(c, v, s.now()); err != nil {
		if errors.Is(err, domain.ErrInvalidComposition) {
			return nil, &ValidationError{Validation: v}
		}
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("composition status changed",
		zap.String("id", c.ID),
		zap.String("from", string(from)),
		zap.String("to", string(c.Status)),
	)
	if err := s.metrics.RecordTransition(ctx, ports.TransitionMetrics{
		Entity: "composition",
		ID:     c.ID,
		From:   string(from),
		To:     string(c.Status),
	}); err != nil {
		s.log.Warn("failed to record transition metrics", zap.Error(err))
	}
	return c, nil
}
