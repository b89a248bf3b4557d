package domain

import "time"

// MenuItem is a catalog entry shown on the customer-facing menu.
type MenuItem struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Category    string
	Image       string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
