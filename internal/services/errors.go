package services

import (
	"errors"
	"fmt"

	"storefront/internal/repositories"
)

var (
	ErrProductNotFound         = repositories.ErrProductNotFound
	ErrOrderNotFound           = repositories.ErrOrderNotFound
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrOrderNotEditable        = errors.New("only pending orders can be modified")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrImageStorageDisabled    = errors.New("image storage is not configured")
	ErrInvalidOrder            = errors.New("invalid order")
)

// InsufficientStockError reports the first product whose stock cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID    int64
	ProductName  string
	CurrentStock int
	Requested    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Product %s doesn't have enough stock. Current stock: %d", e.ProductName, e.CurrentStock)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
