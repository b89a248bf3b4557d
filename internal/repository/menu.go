package repository

import (
	"context"

	"gendai-ordering/internal/domain"
)

// MenuItemRepository exposes persistence operations for the catalog.
type MenuItemRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, item *domain.MenuItem) (int64, error)
	Update(ctx context.Context, item *domain.MenuItem) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.MenuItem, error)
	List(ctx context.Context) ([]domain.MenuItem, error)
}
