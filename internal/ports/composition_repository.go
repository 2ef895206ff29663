package ports

import (
	"context"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

type CompositionRepository interface {
	Create(ctx context.Context, composition *domain.Composition) error
	GetByID(ctx context.Context, id string) (*domain.Composition, error)
	List(ctx context.Context) ([]*domain.Composition, error)
	Update(ctx context.Context, composition *domain.Composition) error
	Delete(ctx context.Context, id string) error
}
