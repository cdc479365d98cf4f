package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	Count(ctx context.Context) (int, error)
	ListIDs(ctx context.Context) ([]int64, error)
	LockByIDs(ctx context.Context, ids []int64) ([]*models.Product, error)
	Update(ctx context.Context, id int64, price decimal.Decimal, qtyStock int) (*models.Product, error)
	SetImageKey(ctx context.Context, id int64, imageKey *string) error
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, name, price, qty_stock, image_key, created_at, updated_at`

func scanProduct(row scanner) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(&product.ID, &product.Name, &product.Price, &product.QtyStock, &product.ImageKey, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to get product %d: %w", id, err)
	}
	return product, nil
}

// List returns one page of products sorted by name, with id as tie-breaker.
func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan products: %w", err)
	}
	return products, nil
}

func (r *productRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return total, nil
}

func (r *productRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list product ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LockByIDs selects the given products FOR UPDATE in ascending id order.
// Must run inside a transaction. Missing ids are simply absent from the result.
func (r *productRepo) LockByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to lock products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan locked products: %w", err)
	}
	return products, nil
}

func (r *productRepo) Update(ctx context.Context, id int64, price decimal.Decimal, qtyStock int) (*models.Product, error) {
	query := `
		UPDATE products
		SET price = $1, qty_stock = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + productColumns
	product, err := scanProduct(r.db.QueryRow(ctx, query, price, qtyStock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %d: %w", id, err)
	}
	return product, nil
}

func (r *productRepo) SetImageKey(ctx context.Context, id int64, imageKey *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET image_key = $1, updated_at = NOW() WHERE id = $2`, imageKey, id)
	if err != nil {
		return fmt.Errorf("repository: failed to set image of product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
