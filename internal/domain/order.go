package domain

import "time"

type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
)

// ValidOrderStatus reports whether s is one of the whitelisted statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted:
		return true
	}
	return false
}

// Order is a placed customer order. Lines carry name/price snapshots taken
// at order time so historical orders render correctly even after the
// referenced catalog items change or disappear.
type Order struct {
	ID            int64
	CustomerName  string
	Lines         []OrderLine
	TotalAmount   float64
	Status        OrderStatus
	TableNumber   *int
	PaymentMethod string
	OrderType     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine is a single line of an order. It is a tagged variant: a catalog
// line carries the MenuItemID it was resolved from, an ad-hoc line (add-on,
// or a reference that no longer resolves) carries nil.
type OrderLine struct {
	ID         int64
	OrderID    int64
	MenuItemID *int64
	Name       string
	UnitPrice  float64
	Quantity   int
}

// NewCatalogLine builds a line backed by a catalog item.
func NewCatalogLine(menuItemID int64, name string, unitPrice float64, quantity int) OrderLine {
	return OrderLine{
		MenuItemID: &menuItemID,
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
	}
}

// NewAdHocLine builds a free-floating line described entirely by the caller.
func NewAdHocLine(name string, unitPrice float64, quantity int) OrderLine {
	return OrderLine{
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
}

// IsCatalog reports whether the line references a catalog item.
func (l OrderLine) IsCatalog() bool {
	return l.MenuItemID != nil
}

// Subtotal returns the line contribution to the order total.
func (l OrderLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
