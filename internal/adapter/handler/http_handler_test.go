package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ndquoc/ecom-service/internal/adapter/storage"
	"github.com/ndquoc/ecom-service/internal/core/service"
	"github.com/ndquoc/ecom-service/pkg/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.Open(storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))

	logger := zap.NewNop()
	cache := storage.NopCache{}
	orders := service.NewOrderService(store, store, cache, logger)
	products := service.NewProductService(store, cache, logger)

	h := NewHTTPHandler(products, orders, logger)
	srv := httptest.NewServer(h.Routes(metrics.NewServerMetrics("test")))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createProduct(t *testing.T, srv *httptest.Server, name string, price int64, stock int) int64 {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/products", map[string]any{
		"name":       name,
		"unit_price": price,
		"stock":      stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &created)
	require.NotZero(t, created.ID)
	return created.ID
}

func getStock(t *testing.T, srv *httptest.Server, id int64) int {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p struct {
		Stock int `json:"stock"`
	}
	decodeBody(t, resp, &p)
	return p.Stock
}

func TestPlaceOrderEndpoint_Success(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 10)

	resp := postJSON(t, srv.URL+"/api/v1/orders", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var receipt struct {
		ID    string `json:"id"`
		Total int64  `json:"total"`
	}
	decodeBody(t, resp, &receipt)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, int64(1500), receipt.Total)

	assert.Equal(t, 7, getStock(t, srv, id))
}

func TestPlaceOrderEndpoint_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 7)

	resp := postJSON(t, srv.URL+"/api/v1/orders", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 100}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Error, "insufficient stock")

	assert.Equal(t, 7, getStock(t, srv, id))
}

func TestPlaceOrderEndpoint_UnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 10)

	resp := postJSON(t, srv.URL+"/api/v1/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": id, "quantity": 1},
			{"product_id": 9999, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Error, "not found")

	// All-or-nothing: the known product was not decremented.
	assert.Equal(t, 10, getStock(t, srv, id))
}

func TestPlaceOrderEndpoint_Validation(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 10)

	cases := []struct {
		name string
		body any
	}{
		{"empty items", map[string]any{"items": []map[string]any{}}},
		{"zero quantity", map[string]any{"items": []map[string]any{{"product_id": id, "quantity": 0}}}},
		{"negative quantity", map[string]any{"items": []map[string]any{{"product_id": id, "quantity": -2}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/orders", tc.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Post(srv.URL+"/api/v1/orders", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 10, getStock(t, srv, id))
}

func TestGetOrderEndpoint_FrozenPrices(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 10)

	resp := postJSON(t, srv.URL+"/api/v1/orders", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &receipt)

	// Raise the catalog price; the persisted order must not move.
	update := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id), map[string]any{
		"unit_price": 9999,
	})
	require.Equal(t, http.StatusOK, update.StatusCode)
	update.Body.Close()

	orderResp, err := http.Get(srv.URL + "/api/v1/orders/" + receipt.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, orderResp.StatusCode)

	var order struct {
		ID    string `json:"id"`
		Total int64  `json:"total"`
		Items []struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
			UnitPrice int64 `json:"unit_price"`
		} `json:"items"`
	}
	decodeBody(t, orderResp, &order)

	assert.Equal(t, receipt.ID, order.ID)
	assert.Equal(t, int64(1000), order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(500), order.Items[0].UnitPrice)
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/orders/no-such-order")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductEndpoints_CRUD(t *testing.T) {
	srv := newTestServer(t)

	// Invalid create.
	bad := postJSON(t, srv.URL+"/api/v1/products", map[string]any{
		"name":       "  ",
		"unit_price": 500,
	})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	bad.Body.Close()

	id := createProduct(t, srv, "widget", 500, 10)

	// Get.
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p struct {
		Name      string `json:"name"`
		UnitPrice int64  `json:"unit_price"`
	}
	decodeBody(t, resp, &p)
	assert.Equal(t, "widget", p.Name)
	assert.Equal(t, int64(500), p.UnitPrice)

	// Bad id.
	resp, err = http.Get(srv.URL + "/api/v1/products/abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown id.
	resp, err = http.Get(srv.URL + "/api/v1/products/424242")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Update unknown.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/v1/products/424242", map[string]any{"stock": 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// List.
	createProduct(t, srv, "gadget", 250, 5)
	resp, err = http.Get(srv.URL + "/api/v1/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []struct {
		Name string `json:"name"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "gadget", list[0].Name, "newest first")

	// Delete, then the product is gone.
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeletedProductKeepsHistoricalOrder(t *testing.T) {
	srv := newTestServer(t)
	id := createProduct(t, srv, "widget", 500, 10)

	resp := postJSON(t, srv.URL+"/api/v1/orders", map[string]any{
		"items": []map[string]any{{"product_id": id, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &receipt)

	del := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/products/%d", srv.URL, id), nil)
	require.Equal(t, http.StatusNoContent, del.StatusCode)
	del.Body.Close()

	orderResp, err := http.Get(srv.URL + "/api/v1/orders/" + receipt.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, orderResp.StatusCode)
	var order struct {
		Total int64 `json:"total"`
		Items []struct {
			ProductID int64 `json:"product_id"`
		} `json:"items"`
	}
	decodeBody(t, orderResp, &order)
	assert.Equal(t, int64(500), order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, id, order.Items[0].ProductID)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Generate one request so the counter exists, then scrape.
	createProduct(t, srv, "widget", 500, 1)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "ecom_test_http_requests_total")
}
