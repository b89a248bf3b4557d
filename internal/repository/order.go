package repository

import (
	"context"

	"gendai-ordering/internal/domain"
)

// OrderRepository exposes persistence operations for Order aggregates.
// Creating an order persists its lines in the same transaction; orders are
// never deleted by any exposed operation.
type OrderRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, order *domain.Order) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}
