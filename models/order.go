package models

import "time"

// Order is one row from the unified network orders table. Orders are written
// by the shop checkouts, never by this service; we only read them for rollups.
// TotalAmount stays a string because the table stores it as text and malformed
// values must degrade to zero instead of failing the whole aggregation.
type Order struct {
	ID            int64       `json:"id"`
	Site          string      `json:"site"`
	CustomerEmail string      `json:"customerEmail"`
	TotalAmount   string      `json:"totalAmount"`
	CreatedAt     time.Time   `json:"createdAt"`
	Items         []OrderItem `json:"items"`
}

// OrderItem is one line item within an order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
