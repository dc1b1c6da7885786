package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"cathedral/analytics/models"
)

// OrderStore reads the unified network orders table. Orders are input-only
// for this service; the checkouts own the writes.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// ListOrders returns every order, newest first. Line items live in a JSON
// column; a row whose items fail to decode still counts as an order with no
// items rather than failing the whole read.
func (s *OrderStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT id, site, customer_email, total_amount, created_at, items
		FROM cathedral_network_orders
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query network orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.Site, &o.CustomerEmail, &o.TotalAmount, &o.CreatedAt, &items); err != nil {
			log.Printf("Error scanning order row: %v", err)
			continue
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &o.Items); err != nil {
				log.Printf("Error decoding items for order %d: %v", o.ID, err)
				o.Items = nil
			}
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during network orders query: %w", err)
	}

	return orders, nil
}
