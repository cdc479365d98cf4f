package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithToken("tkn"))
}

func TestListProducts_SendsPagingQuery(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Apple","price":"1.50","qty_stock":3}],"current_page":2,"last_page":3,"per_page":20,"total":41}`)
	})

	page, err := c.ListProducts(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, page.LastPage)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].Price.Equal(decimal.RequireFromString("1.5")))
}

func TestListProducts_OmitsZeroPaging(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"data":[],"current_page":1,"last_page":1,"per_page":10,"total":0}`)
	})

	_, err := c.ListProducts(context.Background(), 0, 0)
	require.NoError(t, err)
}

func TestPlaceOrder(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.PlaceOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Ada", req.CustomerName)
		assert.Equal(t, []models.OrderLineRequest{{ProductID: 1, Quantity: 2}}, req.Items)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Order created successfully","order":{"id":7,"status":"pending","total_value":"3.00"}}`)
	})

	order, err := c.PlaceOrder(context.Background(), &models.PlaceOrderRequest{
		CustomerName: "Ada",
		DeliveryDate: "2025-06-20",
		Items:        []models.OrderLineRequest{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestPlaceOrder_DecodesErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":"INSUFFICIENT_STOCK","message":"Product Apple doesn't have enough stock. Current stock: 1"}}`)
	})

	_, err := c.PlaceOrder(context.Background(), &models.PlaceOrderRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr.Code)
	assert.Equal(t, "Product Apple doesn't have enough stock. Current stock: 1", err.Error())
}

func TestAPIError_ValidationDetailsAndPlainBodies(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/1":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"error":{"code":"VALIDATION_ERROR","message":"The given data was invalid.","details":{"items":"The items field is required."}}}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down\n")
		}
	})

	_, err := c.UpdateOrder(context.Background(), 1, &models.UpdateOrderRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "The items field is required.", apiErr.Details["items"])

	_, err = c.GetOrder(context.Background(), 2)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestOrderRoutes(t *testing.T) {
	var seen []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/orders":
			_, _ = io.WriteString(w, `[{"id":2},{"id":1}]`)
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"id":5,"items":[]}`)
		case r.Method == http.MethodDelete:
			_, _ = io.WriteString(w, `{"message":"Order deleted successfully"}`)
		default:
			_, _ = io.WriteString(w, `{"message":"ok","order":{"id":5,"status":"cancelled"}}`)
		}
	})
	ctx := context.Background()

	orders, err := c.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	order, err := c.GetOrder(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), order.ID)

	order, err = c.UpdateOrderStatus(ctx, 5, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	require.NoError(t, c.DeleteOrder(ctx, 5))

	assert.Equal(t, []string{
		"GET /api/orders",
		"GET /api/orders/5",
		"PUT /api/orders/5/status",
		"DELETE /api/orders/5",
	}, seen)
}

func TestGetProduct_NotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"Product not found"}}`)
	})

	product, err := c.GetProduct(context.Background(), 9)
	assert.Nil(t, product)
	assert.EqualError(t, err, "Product not found")
}
