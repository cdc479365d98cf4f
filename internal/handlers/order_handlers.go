package handlers

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
)

// OrderHandlers handles HTTP requests for orders
type OrderHandlers struct {
	orderService services.OrderService
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orderService services.OrderService) *OrderHandlers {
	return &OrderHandlers{orderService: orderService}
}

// ListOrders godoc
// @Summary  List orders with items and customer
// @Tags     orders
// @Produce  json
// @Success  200  {array}  models.Order
// @Router   /orders [get]
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary  Get an order
// @Tags     orders
// @Produce  json
// @Param    id   path      int  true  "Order ID"
// @Success  200  {object}  models.Order
// @Failure  404  {object}  common.ErrorResponse
// @Router   /orders/{id} [get]
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	id, ok, err := parseID(c, "Order")
	if !ok {
		return err
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CreateOrder godoc
// @Summary  Place an order
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    body  body      models.PlaceOrderRequest  true  "Cart payload"
// @Success  201   {object}  models.OrderResponse
// @Failure  400   {object}  common.ErrorResponse
// @Failure  404   {object}  common.ErrorResponse
// @Failure  422   {object}  common.ErrorResponse
// @Router   /orders [post]
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	var req models.PlaceOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	deliveryDate, _ := time.Parse(models.DateLayout, req.DeliveryDate)
	order, err := h.orderService.PlaceOrder(c.Request().Context(), &models.PlaceOrder{
		CustomerName: strings.TrimSpace(req.CustomerName),
		DeliveryDate: deliveryDate,
		Items:        req.Lines(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, models.OrderResponse{Message: "Order created successfully", Order: order})
}

// UpdateOrder godoc
// @Summary  Replace the items of a pending order
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    id    path      int                        true  "Order ID"
// @Param    body  body      models.UpdateOrderRequest  true  "New items"
// @Success  200   {object}  models.OrderResponse
// @Failure  409   {object}  common.ErrorResponse
// @Router   /orders/{id} [put]
func (h *OrderHandlers) UpdateOrder(c echo.Context) error {
	id, ok, err := parseID(c, "Order")
	if !ok {
		return err
	}

	var req models.UpdateOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	revise := &models.ReviseOrder{Items: req.Lines()}
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		revise.CustomerName = &name
	}
	if req.DeliveryDate != nil {
		d, _ := time.Parse(models.DateLayout, *req.DeliveryDate)
		revise.DeliveryDate = &d
	}

	order, err := h.orderService.UpdateOrder(c.Request().Context(), id, revise)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.OrderResponse{Message: "Order updated successfully", Order: order})
}

// UpdateOrderStatus godoc
// @Summary  Deliver or cancel a pending order
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    id    path      int                              true  "Order ID"
// @Param    body  body      models.UpdateOrderStatusRequest  true  "Target status"
// @Success  200   {object}  models.OrderResponse
// @Failure  409   {object}  common.ErrorResponse
// @Router   /orders/{id}/status [put]
func (h *OrderHandlers) UpdateOrderStatus(c echo.Context) error {
	id, ok, err := parseID(c, "Order")
	if !ok {
		return err
	}

	var req models.UpdateOrderStatusRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	order, err := h.orderService.ChangeStatus(c.Request().Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.OrderResponse{Message: "Order status updated successfully", Order: order})
}

// DeleteOrder godoc
// @Summary  Delete an order and return its stock
// @Tags     orders
// @Produce  json
// @Param    id   path      int  true  "Order ID"
// @Success  200  {object}  models.MessageResponse
// @Failure  404  {object}  common.ErrorResponse
// @Router   /orders/{id} [delete]
func (h *OrderHandlers) DeleteOrder(c echo.Context) error {
	id, ok, err := parseID(c, "Order")
	if !ok {
		return err
	}

	if err := h.orderService.DeleteOrder(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Order deleted successfully"})
}
