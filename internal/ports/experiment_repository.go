package ports

import (
	"context"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

// ExperimentFilter narrows List results. Zero values match everything.
type ExperimentFilter struct {
	Status *domain.ExperimentStatus
	Limit  int
}

type ExperimentRepository interface {
	Create(ctx context.Context, experiment *domain.ExperimentConfig) error
	GetByID(ctx context.Context, id string) (*domain.ExperimentConfig, error)
	GetByName(ctx context.Context, name string) (*domain.ExperimentConfig, error)
	List(ctx context.Context, filter ExperimentFilter) ([]*domain.ExperimentConfig, error)
	Update(ctx context.Context, experiment *domain.ExperimentConfig) error
	Delete(ctx context.Context, id string) error
}
