package experiments

import (
	"context"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
)

// MockRepository is a mock implementation of ports.ExperimentRepository for testing.
type MockRepository struct {
	CreateFunc    func(ctx context.Context, e *domain.ExperimentConfig) error
	GetByIDFunc   func(ctx context.Context, id string) (*domain.ExperimentConfig, error)
	GetByNameFunc func(ctx context.Context, name string) (*domain.ExperimentConfig, error)
	ListFunc      func(ctx context.Context, filter ports.ExperimentFilter) ([]*domain.ExperimentConfig, error)
	UpdateFunc    func(ctx context.Context, e *domain.ExperimentConfig) error
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, e *domain.ExperimentConfig) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.ExperimentConfig, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) GetByName(ctx context.Context, name string) (*domain.ExperimentConfig, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockRepository) List(ctx context.Context, filter ports.ExperimentFilter) ([]*domain.ExperimentConfig, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*domain.ExperimentConfig{}, nil
}

func (m *MockRepository) Update(ctx context.Context, e *domain.ExperimentConfig) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, e)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
