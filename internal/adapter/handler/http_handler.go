package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ndquoc/ecom-service/internal/core/domain"
	"github.com/ndquoc/ecom-service/internal/core/service"
	"github.com/ndquoc/ecom-service/pkg/metrics"
)

type HTTPHandler struct {
	products *service.ProductService
	orders   *service.OrderService
	logger   *zap.Logger
}

func NewHTTPHandler(products *service.ProductService, orders *service.OrderService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		products: products,
		orders:   orders,
		logger:   logger,
	}
}

// Routes builds the service mux. Every API route is wrapped with the
// request counter and latency histogram.
func (h *HTTPHandler) Routes(m *metrics.ServerMetrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products", instrument(m, "list_products", h.ListProducts))
	mux.HandleFunc("POST /api/v1/products", instrument(m, "create_product", h.CreateProduct))
	mux.HandleFunc("GET /api/v1/products/{id}", instrument(m, "get_product", h.GetProduct))
	mux.HandleFunc("PUT /api/v1/products/{id}", instrument(m, "update_product", h.UpdateProduct))
	mux.HandleFunc("DELETE /api/v1/products/{id}", instrument(m, "delete_product", h.DeleteProduct))
	mux.HandleFunc("POST /api/v1/orders", instrument(m, "place_order", h.PlaceOrder))
	mux.HandleFunc("GET /api/v1/orders/{id}", instrument(m, "get_order", h.GetOrder))
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", m.Handler())
	return mux
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price"`
	Stock       int    `json:"stock"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UnitPrice   *int64  `json:"unit_price"`
	Stock       *int    `json:"stock"`
}

type productResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Stock       int    `json:"stock"`
	CreatedAt   string `json:"created_at"`
}

type orderItemPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type placeOrderRequest struct {
	Items []orderItemPayload `json:"items"`
}

type orderReceiptResponse struct {
	ID    string `json:"id"`
	Total int64  `json:"total"`
}

type orderItemResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Total     int64               `json:"total"`
	CreatedAt string              `json:"created_at"`
	Items     []orderItemResponse `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	reqs := make([]domain.OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		reqs = append(reqs, domain.OrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	receipt, err := h.orders.PlaceOrder(r.Context(), reqs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrProductNotFound),
			errors.Is(err, service.ErrInsufficientStock):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.Error("place order failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, orderReceiptResponse{ID: receipt.ID, Total: receipt.Total})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
			return
		}
		h.logger.Error("get order failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	items := make([]orderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	writeJSON(w, http.StatusOK, orderResponse{
		ID:        order.ID,
		Total:     order.Total,
		CreatedAt: order.CreatedAt.Format(time.RFC3339Nano),
		Items:     items,
	})
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.products.CreateProduct(r.Context(), req.Name, req.Description, req.UnitPrice, req.Stock)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("create product failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.products.UpdateProduct(r.Context(), id, domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Stock:       req.Stock,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrProductNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})
		default:
			h.logger.Error("update product failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.logger.Error("delete product failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
