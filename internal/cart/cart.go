// Package cart holds a shopper's lines in memory and turns them into an order.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrIncompleteCheckout = errors.New("please fill in all fields and add items to your cart")

// OrderPlacer submits an order. *client.Client satisfies it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest) (*models.Order, error)
}

type Line struct {
	Product  models.Product
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is the locally built confirmation shown after a successful checkout.
type Summary struct {
	OrderID      string
	CustomerName string
	DeliveryDate string
	Lines        []Line
	Total        decimal.Decimal
}

// Cart is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
	now   func() time.Time
}

func New() *Cart {
	return &Cart{now: time.Now}
}

// Add puts one unit of product in the cart.
func (c *Cart) Add(product models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: product, Quantity: 1})
}

func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID int64) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Total() decimal.Decimal {
	return total(c.Lines())
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines() {
		n += l.Quantity
	}
	return n
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Checkout submits the cart as an order. On success the cart is emptied and a
// summary built from local state is returned; on failure the cart is untouched.
func (c *Cart) Checkout(ctx context.Context, placer OrderPlacer, customerName, deliveryDate string) (*Summary, error) {
	customerName = strings.TrimSpace(customerName)
	deliveryDate = strings.TrimSpace(deliveryDate)

	lines := c.Lines()
	if customerName == "" || deliveryDate == "" || len(lines) == 0 {
		return nil, ErrIncompleteCheckout
	}
	if _, err := time.Parse(models.DateLayout, deliveryDate); err != nil {
		return nil, fmt.Errorf("delivery date must look like %s: %w", models.DateLayout, err)
	}

	req := &models.PlaceOrderRequest{
		CustomerName: customerName,
		DeliveryDate: deliveryDate,
		Items:        make([]models.OrderLineRequest, 0, len(lines)),
	}
	for _, l := range lines {
		req.Items = append(req.Items, models.OrderLineRequest{ProductID: l.Product.ID, Quantity: l.Quantity})
	}

	order, err := placer.PlaceOrder(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("customer_name", customerName).Msg("checkout failed")
		return nil, err
	}

	orderID := fmt.Sprintf("ORD-%d", c.now().UnixMilli())
	if order != nil && order.ID > 0 {
		orderID = strconv.FormatInt(order.ID, 10)
	}

	c.Clear()
	return &Summary{
		OrderID:      orderID,
		CustomerName: customerName,
		DeliveryDate: deliveryDate,
		Lines:        lines,
		Total:        total(lines),
	}, nil
}
