package testhelpers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delivery() time.Time {
	return time.Now().AddDate(0, 0, 3).Truncate(24 * time.Hour)
}

func TestOrderLifecycle(t *testing.T) {
	db := SetupTestDB(t)
	stack := NewStack(t, db)
	ctx := context.Background()

	apple := SeedProduct(t, db, "Apple", "1.20", 10)
	pear := SeedProduct(t, db, "Pear", "0.85", 4)

	order, err := stack.Orders.PlaceOrder(ctx, &models.PlaceOrder{
		CustomerName: "Ada",
		DeliveryDate: delivery(),
		Items: []models.OrderLine{
			{ProductID: apple, Quantity: 3},
			{ProductID: pear, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "5.30", order.TotalValue.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 7, Stock(t, db, apple))
	assert.Equal(t, 2, Stock(t, db, pear))

	t.Run("update replaces items", func(t *testing.T) {
		updated, err := stack.Orders.UpdateOrder(ctx, order.ID, &models.ReviseOrder{
			Items: []models.OrderLine{{ProductID: pear, Quantity: 4}},
		})
		require.NoError(t, err)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, "3.40", updated.TotalValue.StringFixed(2))
		assert.Equal(t, 10, Stock(t, db, apple))
		assert.Equal(t, 0, Stock(t, db, pear))
	})

	t.Run("cancel returns stock once", func(t *testing.T) {
		_, err := stack.Orders.ChangeStatus(ctx, order.ID, models.OrderStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 4, Stock(t, db, pear))

		require.NoError(t, stack.Orders.DeleteOrder(ctx, order.ID))
		assert.Equal(t, 4, Stock(t, db, pear))

		_, err = stack.Orders.GetOrder(ctx, order.ID)
		assert.ErrorIs(t, err, services.ErrOrderNotFound)
	})
}

func TestPlaceOrder_InsufficientStockChangesNothing(t *testing.T) {
	db := SetupTestDB(t)
	stack := NewStack(t, db)
	ctx := context.Background()

	apple := SeedProduct(t, db, "Apple", "1.20", 10)
	pear := SeedProduct(t, db, "Pear", "0.85", 1)

	_, err := stack.Orders.PlaceOrder(ctx, &models.PlaceOrder{
		CustomerName: "Ada",
		DeliveryDate: delivery(),
		Items: []models.OrderLine{
			{ProductID: apple, Quantity: 2},
			{ProductID: pear, Quantity: 2},
		},
	})

	var stockErr *services.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Product Pear doesn't have enough stock. Current stock: 1", stockErr.Error())
	assert.Equal(t, 10, Stock(t, db, apple))
	assert.Equal(t, 1, Stock(t, db, pear))

	orders, err := stack.Orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_ConcurrentBuyersCannotOversell(t *testing.T) {
	db := SetupTestDB(t)
	stack := NewStack(t, db)
	ctx := context.Background()

	last := SeedProduct(t, db, "Last Loaf", "3.00", 1)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = stack.Orders.PlaceOrder(ctx, &models.PlaceOrder{
				CustomerName: "Buyer",
				DeliveryDate: delivery(),
				Items:        []models.OrderLine{{ProductID: last, Quantity: 1}},
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, Stock(t, db, last))
}

func TestCatalog_CachesAndInvalidates(t *testing.T) {
	db := SetupTestDB(t)
	stack := NewStack(t, db)
	ctx := context.Background()

	SeedProduct(t, db, "Banana", "0.50", 5)
	apple := SeedProduct(t, db, "Apple", "1.20", 10)

	page, err := stack.Products.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Apple", page.Data[0].Name)
	assert.True(t, stack.Cache.Exists("products_page_1_per_10"))

	_, err = stack.Orders.PlaceOrder(ctx, &models.PlaceOrder{
		CustomerName: "Ada",
		DeliveryDate: delivery(),
		Items:        []models.OrderLine{{ProductID: apple, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.False(t, stack.Cache.Exists("products_page_1_per_10"))

	page, err = stack.Products.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 9, page.Data[0].QtyStock)
}
