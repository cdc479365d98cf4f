package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	LockByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

const orderWithCustomerQuery = `
		SELECT o.id, o.customer_id, o.delivery_date, o.total_value, o.status, o.created_at, o.updated_at,
		       c.id, c.name, c.created_at, c.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
`

func scanOrderWithCustomer(row scanner) (*models.Order, error) {
	order := &models.Order{Customer: &models.Customer{}}
	err := row.Scan(
		&order.ID, &order.CustomerID, &order.DeliveryDate, &order.TotalValue, &order.Status, &order.CreatedAt, &order.UpdatedAt,
		&order.Customer.ID, &order.Customer.Name, &order.Customer.CreatedAt, &order.Customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, delivery_date, total_value, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, order.CustomerID, order.DeliveryDate, order.TotalValue, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrderWithCustomer(r.db.QueryRow(ctx, orderWithCustomerQuery+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}
	return order, nil
}

// LockByID selects the order row FOR UPDATE. Must run inside a transaction.
func (r *orderRepo) LockByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, customer_id, delivery_date, total_value, status, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&order.ID, &order.CustomerID, &order.DeliveryDate, &order.TotalValue, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to lock order %d: %w", id, err)
	}
	return order, nil
}

// List returns every order, newest first.
func (r *orderRepo) List(ctx context.Context) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, orderWithCustomerQuery+` ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrderWithCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET customer_id = $1, delivery_date = $2, total_value = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, order.CustomerID, order.DeliveryDate, order.TotalValue, order.Status, order.ID).
		Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to update order %d: %w", order.ID, err)
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
