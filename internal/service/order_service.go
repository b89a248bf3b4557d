package service

import (
	"context"
	"errors"
	"math"

	"github.com/sirupsen/logrus"

	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/repository"
)

// ErrOrderNotFound is returned when an order id does not resolve.
var ErrOrderNotFound = errors.New("order not found")

const fallbackLineName = "Unknown Item"

// OrderLineInput is one raw cart line as submitted by the client: either a
// catalog reference or a self-described add-on.
type OrderLineInput struct {
	MenuItemID *int64
	Name       string
	Price      *float64
	Quantity   int
	IsAddon    bool
}

// CreateOrderInput carries a raw checkout payload.
type CreateOrderInput struct {
	CustomerName  string
	Lines         []OrderLineInput
	TotalAmount   float64
	TableNumber   *int
	PaymentMethod string
	OrderType     string
}

// OrderService normalizes heterogeneous cart payloads into persisted orders
// and manages the order status lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
	menu   repository.MenuItemRepository
	logger logrus.FieldLogger
}

func NewOrderService(orders repository.OrderRepository, menu repository.MenuItemRepository, logger logrus.FieldLogger) OrderService {
	return &orderService{
		orders: orders,
		menu:   menu,
		logger: logger,
	}
}

// CreateOrder maps each raw line into an OrderLine snapshot and persists the
// order. Catalog lines re-resolve name and price from the authoritative menu
// item at order time; client-supplied values are only the fallback for ad-hoc
// lines and for references that no longer resolve. A malformed line degrades
// to the "Unknown Item"/0 placeholder instead of failing the whole order.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	lines := make([]domain.OrderLine, 0, len(input.Lines))
	for _, raw := range input.Lines {
		lines = append(lines, s.normalizeLine(ctx, raw))
	}

	total := 0.0
	for _, line := range lines {
		total += line.Subtotal()
	}
	if math.Abs(total-input.TotalAmount) > 0.005 {
		s.logger.WithFields(logrus.Fields{
			"customer":    input.CustomerName,
			"clientTotal": input.TotalAmount,
			"serverTotal": total,
		}).Warn("client order total disagrees with recomputed total, storing recomputed value")
	}

	order := &domain.Order{
		CustomerName:  input.CustomerName,
		Lines:         lines,
		TotalAmount:   total,
		Status:        domain.OrderStatusPreparing,
		TableNumber:   input.TableNumber,
		PaymentMethod: input.PaymentMethod,
		OrderType:     input.OrderType,
	}

	if _, err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) normalizeLine(ctx context.Context, raw OrderLineInput) domain.OrderLine {
	name := raw.Name
	if name == "" {
		name = fallbackLineName
	}
	price := 0.0
	if raw.Price != nil {
		price = *raw.Price
	}

	if raw.IsAddon || raw.MenuItemID == nil {
		return domain.NewAdHocLine(name, price, raw.Quantity)
	}

	item, err := s.menu.Get(ctx, *raw.MenuItemID)
	if err != nil {
		// stale or bogus reference: keep the order, degrade to an ad-hoc line
		s.logger.WithField("menuItemId", *raw.MenuItemID).Warn("order line references unknown menu item")
		return domain.NewAdHocLine(name, price, raw.Quantity)
	}

	return domain.NewCatalogLine(item.ID, item.Name, item.Price, raw.Quantity)
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// UpdateStatus applies a whitelisted status value. Anything outside the
// whitelist is silently ignored and the stored status is left untouched.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.ValidOrderStatus(status) {
		return order, nil
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	order.Status = status
	return order, nil
}
