package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lightkart/internal/middleware"
	"lightkart/internal/model"
	"lightkart/internal/service"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests. A successful response is
// the gateway's auto-submitting payment form, not JSON.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorised", h.logger)
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	cartIDs := make([]uuid.UUID, 0, len(req.CartIDs))
	for _, raw := range req.CartIDs {
		cartID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cart ID format", h.logger)
			return
		}
		cartIDs = append(cartIDs, cartID)
	}

	form, err := h.service.CreateOrder(r.Context(), userID, cartIDs)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("X-Order-Id", form.OrderID.String())
	writeHTML(w, http.StatusOK, form.HTML)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorised", h.logger)
		return
	}

	orders, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders, h.logger)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorised", h.logger)
		return
	}

	orderID, ok := h.orderIDFromPath(w, r.URL.Path, "/api/orders/")
	if !ok {
		return
	}

	detail, err := h.service.GetByID(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail, h.logger)
}

// PendingPayment handles POST /api/orders/{id}/payment requests,
// re-issuing the gateway form for an order still awaiting payment.
func (h *OrderHandler) PendingPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorised", h.logger)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/payment")
	orderID, ok := h.orderIDFromPath(w, path, "/api/orders/")
	if !ok {
		return
	}

	form, err := h.service.RenderPendingOrderForm(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("X-Order-Id", form.OrderID.String())
	writeHTML(w, http.StatusOK, form.HTML)
}

// orderIDFromPath extracts and parses the order id path segment,
// writing the error response itself when the segment is bad.
func (h *OrderHandler) orderIDFromPath(w http.ResponseWriter, path, prefix string) (uuid.UUID, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || raw == path {
		writeError(w, http.StatusBadRequest, "order ID is required", h.logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}
	return orderID, true
}
