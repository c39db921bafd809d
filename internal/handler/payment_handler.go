package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"lightkart/internal/model"
	"lightkart/internal/service"
)

// PaymentHandler handles the payment gateway's callback requests.
type PaymentHandler struct {
	service           service.ReconcileService
	checkoutStatusURL string
	logger            zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.ReconcileService, checkoutStatusURL string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:           service,
		checkoutStatusURL: checkoutStatusURL,
		logger:            logger.With().Str("handler", "payment").Logger(),
	}
}

// Notify handles POST /api/payments/newebpay/notify, the gateway's
// server-to-server callback. The gateway retries until it receives a
// 2xx, so a payment for a canceled order is still acknowledged: the
// mismatch is already logged for manual reconciliation and redelivery
// would change nothing.
func (h *PaymentHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	tradeInfo := r.FormValue("TradeInfo")
	tradeSha := r.FormValue("TradeSha")
	if tradeInfo == "" || tradeSha == "" {
		writeError(w, http.StatusBadRequest, "missing trade payload", h.logger)
		return
	}

	err := h.service.HandleNotification(r.Context(), tradeInfo, tradeSha)
	switch {
	case err == nil:
		h.acknowledge(w)
	case errors.Is(err, model.ErrLatePayment):
		h.acknowledge(w)
	case errors.Is(err, model.ErrIntegrity):
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
	case errors.Is(err, model.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error(), h.logger)
	default:
		writeError(w, http.StatusInternalServerError, "failed to process notification", h.logger)
	}
}

// Return handles POST /api/payments/newebpay/return, the browser
// redirect after the customer leaves the gateway page. It never renders
// anything itself; it sends the customer to the storefront's order
// status page.
func (h *PaymentHandler) Return(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	tradeInfo := r.FormValue("TradeInfo")
	if tradeInfo == "" {
		http.Redirect(w, r, h.checkoutStatusURL, http.StatusFound)
		return
	}

	orderID, err := h.service.ResolveReturn(r.Context(), tradeInfo)
	if err != nil {
		h.logger.Warn().Err(err).Msg("could not resolve return payload to an order")
		http.Redirect(w, r, h.checkoutStatusURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, h.checkoutStatusURL+"/"+orderID.String(), http.StatusFound)
}

// acknowledge replies with the plain-text body the gateway expects.
func (h *PaymentHandler) acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
