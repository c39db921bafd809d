package router

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"lightkart/internal/handler"
	"lightkart/internal/middleware"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	jwtSecret string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/api/cart/checkout", checkoutHandler.Submit)

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Route based on method and path
		if r.URL.Path == "/api/orders" || r.URL.Path == "/api/orders/" {
			if r.Method == http.MethodPost {
				orderHandler.Create(w, r)
				return
			}
			orderHandler.List(w, r)
			return
		}

		if strings.HasSuffix(r.URL.Path, "/payment") {
			orderHandler.PendingPayment(w, r)
			return
		}

		orderHandler.GetByID(w, r)
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Gateway callbacks; exempt from JWT auth, the payload carries its
	// own checksum.
	mux.HandleFunc("/api/payments/newebpay/notify", paymentHandler.Notify)
	mux.HandleFunc("/api/payments/newebpay/return", paymentHandler.Return)

	// Apply middleware in order: Recovery -> Logging -> CORS -> JWTAuth
	var h http.Handler = mux
	h = middleware.JWTAuth(jwtSecret, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
