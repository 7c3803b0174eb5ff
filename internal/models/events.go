package models

import "time"

// OrderPlacedEvent is published once an order is durably stored.
type OrderPlacedEvent struct {
	OrderID     string    `json:"order_id"`
	TenantID    string    `json:"tenant_id"`
	OrderNumber string    `json:"order_number"`
	Total       int64     `json:"total"`
	PlacedAt    time.Time `json:"placed_at"`
}
