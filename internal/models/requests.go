package models

import "github.com/shopspring/decimal"

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

type OrderLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type PlaceOrderRequest struct {
	CustomerName string             `json:"customer_name" validate:"required,notblank,max=255"`
	DeliveryDate string             `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Items        []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	CustomerName *string            `json:"customer_name,omitempty" validate:"omitempty,notblank,max=255"`
	DeliveryDate *string            `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items        []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending delivered cancelled"`
}

type UpdateProductRequest struct {
	Price    *decimal.Decimal `json:"price" validate:"required,gte=0"`
	QtyStock *int             `json:"qty_stock" validate:"required,gte=0"`
}

// OrderResponse wraps an order with a human readable message.
type OrderResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}

type ProductResponse struct {
	Message string   `json:"message"`
	Product *Product `json:"product"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toLines(in []OrderLineRequest) []OrderLine {
	out := make([]OrderLine, len(in))
	for i, l := range in {
		out[i] = OrderLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

// Lines converts the request items to order lines.
func (r *PlaceOrderRequest) Lines() []OrderLine { return toLines(r.Items) }

// Lines converts the request items to order lines.
func (r *UpdateOrderRequest) Lines() []OrderLine { return toLines(r.Items) }
