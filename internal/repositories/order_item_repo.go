package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

type OrderItemRepository interface {
	Create(ctx context.Context, item *models.OrderItem) error
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]*models.OrderItem, error)
	DeleteByOrderID(ctx context.Context, orderID int64) error
}

type orderItemRepo struct {
	db DBTX
}

func NewOrderItemRepo(db DBTX) OrderItemRepository {
	return &orderItemRepo{db: db}
}

func (r *orderItemRepo) Create(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to create order item: %w", err)
	}
	return nil
}

// ListByOrderIDs returns the items of the given orders with their product loaded.
func (r *orderItemRepo) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]*models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.created_at, oi.updated_at,
		       p.id, p.name, p.price, p.qty_stock, p.image_key, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{Product: &models.Product{}}
		p := item.Product
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Price, &p.QtyStock, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderItemRepo) DeleteByOrderID(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete items of order %d: %w", orderID, err)
	}
	return nil
}
