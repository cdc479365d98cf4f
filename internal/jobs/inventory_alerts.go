package jobs

import (
	"context"
	"fmt"

	"storefront/internal/repositories"

	"github.com/rs/zerolog/log"
)

// DefaultLowStockThreshold applies when no positive threshold is configured.
const DefaultLowStockThreshold = 5

type InventoryAlertService struct {
	inventoryRepo repositories.InventoryRepository
}

type InventoryAlert struct {
	ProductID    int64
	ProductName  string
	CurrentStock int
	Threshold    int
}

// OutOfStock reports whether the product can no longer be ordered at all.
func (a InventoryAlert) OutOfStock() bool {
	return a.CurrentStock <= 0
}

func NewInventoryAlertService(inventoryRepo repositories.InventoryRepository) *InventoryAlertService {
	return &InventoryAlertService{inventoryRepo: inventoryRepo}
}

// CheckLowStock returns an alert for every product at or below threshold,
// emptiest first.
func (a *InventoryAlertService) CheckLowStock(ctx context.Context, threshold int) ([]InventoryAlert, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	products, err := a.inventoryRepo.ListAtOrBelow(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	alerts := make([]InventoryAlert, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, InventoryAlert{
			ProductID:    p.ID,
			ProductName:  p.Name,
			CurrentStock: p.QtyStock,
			Threshold:    threshold,
		})
	}
	return alerts, nil
}

// LogLowStockAlerts reports out-of-stock products as errors and the rest as warnings.
func (a *InventoryAlertService) LogLowStockAlerts(alerts []InventoryAlert) (outOfStock, low int) {
	for _, alert := range alerts {
		if alert.OutOfStock() {
			outOfStock++
			log.Error().
				Int64("product_id", alert.ProductID).
				Str("product_name", alert.ProductName).
				Msg("product out of stock")
			continue
		}
		low++
		log.Warn().
			Int64("product_id", alert.ProductID).
			Str("product_name", alert.ProductName).
			Int("qty_stock", alert.CurrentStock).
			Int("threshold", alert.Threshold).
			Msg("product stock is low")
	}
	return outOfStock, low
}

// ScheduledLowStockCheck is the body of the periodic low stock job.
func (a *InventoryAlertService) ScheduledLowStockCheck(ctx context.Context, threshold int) error {
	alerts, err := a.CheckLowStock(ctx, threshold)
	if err != nil {
		log.Error().Err(err).Msg("scheduled low stock check failed")
		return err
	}

	outOfStock, low := a.LogLowStockAlerts(alerts)
	log.Info().
		Int("out_of_stock", outOfStock).
		Int("low_stock", low).
		Msg("low stock check completed")
	return nil
}
