// Package testhelpers wires real Postgres and an in-memory Redis for
// integration tests. Tests are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/internal/caching"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB migrates the database at TEST_DATABASE_URL and empties every table.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	if err := database.Migrate(dsn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	pool, err := database.NewPool(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `TRUNCATE order_items, orders, customers, products RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate test tables: %v", err)
	}

	return &TestDB{Pool: pool}
}

// SeedProduct inserts a product and returns its id.
func SeedProduct(t *testing.T, db *TestDB, name, price string, qty int) int64 {
	t.Helper()

	var id int64
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO products (name, price, qty_stock) VALUES ($1, $2, $3) RETURNING id`,
		name, decimal.RequireFromString(price), qty,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return id
}

// Stock reads a product's current stock straight from the table.
func Stock(t *testing.T, db *TestDB, productID int64) int {
	t.Helper()

	var qty int
	if err := db.Pool.QueryRow(context.Background(), `SELECT qty_stock FROM products WHERE id = $1`, productID).Scan(&qty); err != nil {
		t.Fatalf("Failed to read stock of product %d: %v", productID, err)
	}
	return qty
}

// Stack is the service layer wired against the test database and a miniredis cache.
type Stack struct {
	Cache    *miniredis.Miniredis
	Products services.ProductService
	Orders   services.OrderService
}

func NewStack(t *testing.T, db *TestDB) *Stack {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cacheSvc := caching.NewCacheService(client)
	repos := repositories.NewRepositories(db.Pool)
	invalidator := services.NewCacheInvalidationService(repos.Products, cacheSvc)

	return &Stack{
		Cache:    mr,
		Products: services.NewProductService(repos.Products, cacheSvc, invalidator, nil, 5*time.Minute),
		Orders:   services.NewOrderService(repos, repositories.NewTransactor(db.Pool), invalidator),
	}
}
