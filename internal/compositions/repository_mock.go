package compositions

import (
	"context"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

// MockRepository is a mock implementation of ports.CompositionRepository for testing.
type MockRepository struct {
	CreateFunc  func(ctx context.Context, c *domain.Composition) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Composition, error)
	ListFunc    func(ctx context.Context) ([]*domain.Composition, error)
	UpdateFunc  func(ctx context.Context, c *domain.Composition) error
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, c *domain.Composition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.Composition, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) List(ctx context.Context) ([]*domain.Composition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*domain.Composition{}, nil
}

func (m *MockRepository) Update(ctx context.Context, c *domain.Composition) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
