package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	GetByName(ctx context.Context, name string) (*models.Customer, error)
	Create(ctx context.Context, name string) (*models.Customer, error)
	FirstOrCreate(ctx context.Context, name string) (*models.Customer, error)
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `
		SELECT id, name, created_at, updated_at
		FROM customers
		WHERE name = $1
		ORDER BY id
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, name).Scan(&customer.ID, &customer.Name, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to get customer by name: %w", err)
	}
	return customer, nil
}

func (r *customerRepo) Create(ctx context.Context, name string) (*models.Customer, error) {
	customer := &models.Customer{Name: name}
	query := `
		INSERT INTO customers (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, name).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create customer: %w", err)
	}
	return customer, nil
}

// FirstOrCreate returns the customer with exactly this name, inserting it when absent.
func (r *customerRepo) FirstOrCreate(ctx context.Context, name string) (*models.Customer, error) {
	customer, err := r.GetByName(ctx, name)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, ErrCustomerNotFound) {
		return nil, err
	}
	return r.Create(ctx, name)
}
