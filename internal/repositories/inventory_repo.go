package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// InventoryRepository owns stock movements on products.
type InventoryRepository interface {
	Adjust(ctx context.Context, productID int64, delta int) error
	ListAtOrBelow(ctx context.Context, threshold int) ([]*models.Product, error)
}

type inventoryRepo struct {
	db DBTX
}

func NewInventoryRepo(db DBTX) InventoryRepository {
	return &inventoryRepo{db: db}
}

// Adjust adds delta (negative to decrement) to a product's stock.
// The products CHECK constraint rejects a result below zero.
func (r *inventoryRepo) Adjust(ctx context.Context, productID int64, delta int) error {
	query := `
		UPDATE products
		SET qty_stock = qty_stock + $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, delta, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to adjust stock of product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *inventoryRepo) ListAtOrBelow(ctx context.Context, threshold int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE qty_stock <= $1 ORDER BY qty_stock ASC, name ASC`
	rows, err := r.db.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list low stock products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan low stock products: %w", err)
	}
	return products, nil
}
