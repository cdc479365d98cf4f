package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID           int64           `json:"id" db:"id"`
	CustomerID   int64           `json:"customer_id" db:"customer_id"`
	DeliveryDate time.Time       `json:"delivery_date" db:"delivery_date"`
	TotalValue   decimal.Decimal `json:"total_value" db:"total_value"`
	Status       OrderStatus     `json:"status" db:"status"`
	Customer     *Customer       `json:"customer,omitempty" db:"-"`
	Items        []*OrderItem    `json:"items" db:"-"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderLine is one requested (product, quantity) pair from a cart payload.
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrder is the input of an order placement.
type PlaceOrder struct {
	CustomerName string      `json:"customer_name"`
	DeliveryDate time.Time   `json:"delivery_date"`
	Items        []OrderLine `json:"items"`
}

// ReviseOrder replaces an order's lines. Nil fields are left unchanged.
type ReviseOrder struct {
	CustomerName *string     `json:"customer_name,omitempty"`
	DeliveryDate *time.Time  `json:"delivery_date,omitempty"`
	Items        []OrderLine `json:"items"`
}

// Demand sums requested quantities per product, preserving first-seen order.
func Demand(lines []OrderLine) ([]int64, map[int64]int) {
	ids := make([]int64, 0, len(lines))
	qty := make(map[int64]int, len(lines))
	for _, l := range lines {
		if _, seen := qty[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	return ids, qty
}
