package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in *models.PlaceOrder) (*models.Order, error)
	UpdateOrder(ctx context.Context, id int64, in *models.ReviseOrder) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	ChangeStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
}

type orderService struct {
	repos       *repositories.Repositories
	transactor  repositories.Transactor
	invalidator CacheInvalidationService
}

// NewOrderService wires the order service. repos serves reads outside transactions.
func NewOrderService(repos *repositories.Repositories, transactor repositories.Transactor, invalidator CacheInvalidationService) OrderService {
	return &orderService{
		repos:       repos,
		transactor:  transactor,
		invalidator: invalidator,
	}
}

func validateLines(lines []models.OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for _, l := range lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: product_id must be positive", ErrInvalidOrder)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidOrder)
		}
	}
	return nil
}

// lockProducts locks the given products in ascending id order and fails on the first missing one.
func lockProducts(ctx context.Context, tx *repositories.Repositories, ids []int64) (map[int64]*models.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	products, err := tx.Products.LockByIDs(ctx, sorted)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range sorted {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
	}
	return byID, nil
}

// checkStock verifies stock + held covers demand for every product, in request order.
func checkStock(ids []int64, demand map[int64]int, products map[int64]*models.Product, held map[int64]int) error {
	for _, id := range ids {
		p := products[id]
		if p.QtyStock+held[id] < demand[id] {
			return &InsufficientStockError{
				ProductID:    p.ID,
				ProductName:  p.Name,
				CurrentStock: p.QtyStock,
				Requested:    demand[id],
			}
		}
	}
	return nil
}

// buildItems snapshots current prices into one item per requested line.
func buildItems(lines []models.OrderLine, products map[int64]*models.Product) ([]*models.OrderItem, decimal.Decimal) {
	items := make([]*models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		p := products[l.ProductID]
		item := &models.OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Product:   p,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}
	return items, total
}

func (s *orderService) createItems(ctx context.Context, tx *repositories.Repositories, orderID int64, items []*models.OrderItem) error {
	for _, item := range items {
		item.OrderID = orderID
		if err := tx.OrderItems.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// moveStock applies delta*qty to each product in ascending id order.
func moveStock(ctx context.Context, tx *repositories.Repositories, qty map[int64]int, sign int, products map[int64]*models.Product) error {
	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		delta := sign * qty[id]
		if err := tx.Inventory.Adjust(ctx, id, delta); err != nil {
			return err
		}
		if p, ok := products[id]; ok {
			p.QtyStock += delta
		}
	}
	return nil
}

func heldQuantities(items []*models.OrderItem) map[int64]int {
	held := make(map[int64]int, len(items))
	for _, item := range items {
		held[item.ProductID] += item.Quantity
	}
	return held
}

func (s *orderService) PlaceOrder(ctx context.Context, in *models.PlaceOrder) (*models.Order, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	var order *models.Order
	ids, demand := models.Demand(in.Items)

	err := s.transactor.WithinTx(ctx, func(tx *repositories.Repositories) error {
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := checkStock(ids, demand, products, nil); err != nil {
			return err
		}

		customer, err := tx.Customers.FirstOrCreate(ctx, in.CustomerName)
		if err != nil {
			return err
		}

		items, total := buildItems(in.Items, products)
		order = &models.Order{
			CustomerID:   customer.ID,
			Customer:     customer,
			DeliveryDate: in.DeliveryDate,
			TotalValue:   total,
			Status:       models.OrderStatusPending,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := s.createItems(ctx, tx, order.ID, items); err != nil {
			return err
		}
		order.Items = items

		return moveStock(ctx, tx, demand, -1, products)
	})
	if err != nil {
		s.logFailure(err, "order placement failed", 0)
		return nil, err
	}

	log.Info().Int64("order_id", order.ID).Int64("customer_id", order.CustomerID).Str("total_value", order.TotalValue.StringFixed(2)).Msg("order placed")
	s.invalidate(ctx, ids)
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id int64, in *models.ReviseOrder) (*models.Order, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	var updated *models.Order
	var touched []int64
	ids, demand := models.Demand(in.Items)

	err := s.transactor.WithinTx(ctx, func(tx *repositories.Repositories) error {
		order, err := tx.Orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrOrderNotEditable
		}

		existing, err := tx.OrderItems.ListByOrderIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		held := heldQuantities(existing)

		touched = slices.Clone(ids)
		for pid := range held {
			touched = append(touched, pid)
		}
		products, err := lockProducts(ctx, tx, touched)
		if err != nil {
			return err
		}
		if err := checkStock(ids, demand, products, held); err != nil {
			return err
		}

		if err := moveStock(ctx, tx, held, 1, products); err != nil {
			return err
		}
		if err := tx.OrderItems.DeleteByOrderID(ctx, id); err != nil {
			return err
		}

		items, total := buildItems(in.Items, products)
		if in.CustomerName != nil {
			customer, err := tx.Customers.FirstOrCreate(ctx, *in.CustomerName)
			if err != nil {
				return err
			}
			order.CustomerID = customer.ID
		}
		if in.DeliveryDate != nil {
			order.DeliveryDate = *in.DeliveryDate
		}
		order.TotalValue = total
		if err := tx.Orders.Update(ctx, order); err != nil {
			return err
		}
		if err := s.createItems(ctx, tx, id, items); err != nil {
			return err
		}
		if err := moveStock(ctx, tx, demand, -1, products); err != nil {
			return err
		}

		updated, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated.Items = items
		return nil
	})
	if err != nil {
		s.logFailure(err, "order update failed", id)
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("total_value", updated.TotalValue.StringFixed(2)).Msg("order updated")
	s.invalidate(ctx, touched)
	return updated, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	var touched []int64

	err := s.transactor.WithinTx(ctx, func(tx *repositories.Repositories) error {
		order, err := tx.Orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		items, err := tx.OrderItems.ListByOrderIDs(ctx, []int64{id})
		if err != nil {
			return err
		}

		if order.Status != models.OrderStatusCancelled {
			held := heldQuantities(items)
			if err := moveStock(ctx, tx, held, 1, nil); err != nil {
				return err
			}
			for pid := range held {
				touched = append(touched, pid)
			}
		}

		return tx.Orders.Delete(ctx, id)
	})
	if err != nil {
		s.logFailure(err, "order deletion failed", id)
		return err
	}

	log.Info().Int64("order_id", id).Msg("order deleted")
	s.invalidate(ctx, touched)
	return nil
}

func (s *orderService) ChangeStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	var touched []int64

	err := s.transactor.WithinTx(ctx, func(tx *repositories.Repositories) error {
		order, err := tx.Orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending || status == models.OrderStatusPending || !status.Valid() {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, order.Status, status)
		}

		items, err := tx.OrderItems.ListByOrderIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		if status == models.OrderStatusCancelled {
			held := heldQuantities(items)
			if err := moveStock(ctx, tx, held, 1, nil); err != nil {
				return err
			}
			for pid := range held {
				touched = append(touched, pid)
			}
		}

		order.Status = status
		if err := tx.Orders.Update(ctx, order); err != nil {
			return err
		}

		updated, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated.Items = nonNilItems(items)
		return nil
	})
	if err != nil {
		s.logFailure(err, "order status change failed", id)
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("status", status.String()).Msg("order status changed")
	s.invalidate(ctx, touched)
	return updated, nil
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.OrderItems.ListByOrderIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Items = nonNilItems(items)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.repos.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []*models.Order{}, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.repos.OrderItems.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]*models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for _, o := range orders {
		o.Items = nonNilItems(byOrder[o.ID])
	}
	return orders, nil
}

func nonNilItems(items []*models.OrderItem) []*models.OrderItem {
	if items == nil {
		return []*models.OrderItem{}
	}
	return items
}

// invalidate forgets catalog entries touched by a committed order write. Failures are only logged.
func (s *orderService) invalidate(ctx context.Context, productIDs []int64) {
	if s.invalidator == nil || len(productIDs) == 0 {
		return
	}
	ids := slices.Clone(productIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if err := s.invalidator.InvalidateProducts(ctx, ids...); err != nil {
		log.Warn().Err(err).Ints64("product_ids", ids).Msg("catalog cache invalidation after order write failed")
	}
}

func (s *orderService) logFailure(err error, msg string, orderID int64) {
	event := log.Error()
	if isBusinessError(err) {
		event = log.Warn()
	}
	if orderID != 0 {
		event = event.Int64("order_id", orderID)
	}
	event.Err(err).Msg(msg)
}

func isBusinessError(err error) bool {
	for _, target := range []error{ErrProductNotFound, ErrOrderNotFound, ErrInsufficientStock, ErrOrderNotEditable, ErrInvalidStatusTransition, ErrInvalidOrder} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
