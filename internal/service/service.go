package service

import (
	"context"

	"github.com/google/uuid"

	"lightkart/internal/mailer"
	"lightkart/internal/model"
	"lightkart/internal/newebpay"
)

// PaymentForm is the gateway hand-off produced when an order enters (or
// re-enters) the payment flow: an auto-submitting HTML form bound to a
// fresh merchant order number.
type PaymentForm struct {
	OrderID uuid.UUID
	HTML    string
}

// CheckoutService defines operations for the checkout step that
// precedes order creation.
type CheckoutService interface {
	// SubmitDraft validates the checkout selection and stores it as the
	// user's current draft, replacing any previous one.
	SubmitDraft(ctx context.Context, userID uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutDraft, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder turns the user's cart lines and checkout draft into a
	// pending order and returns the payment gateway form.
	CreateOrder(ctx context.Context, userID uuid.UUID, cartIDs []uuid.UUID) (*PaymentForm, error)

	// GetByID retrieves the user's order with its items and amount
	// breakdown.
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderDetail, error)

	// ListByUser retrieves the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// RenderPendingOrderForm regenerates the payment gateway form for an
	// order that is still pending, under a fresh merchant order number.
	RenderPendingOrderForm(ctx context.Context, userID, orderID uuid.UUID) (*PaymentForm, error)
}

// ReconcileService defines operations for settling gateway callbacks
// against recorded orders.
type ReconcileService interface {
	// HandleNotification verifies, decrypts, and applies a
	// server-to-server payment notification. It is idempotent: a
	// duplicate notification for an already-paid order succeeds without
	// effect.
	HandleNotification(ctx context.Context, tradeInfo, tradeSha string) error

	// ResolveReturn maps a browser return payload to the order it pays
	// for, so the handler can redirect to the order's status page.
	ResolveReturn(ctx context.Context, tradeInfo string) (uuid.UUID, error)
}

// DraftStore is the checkout-draft persistence the services depend on.
type DraftStore interface {
	Save(ctx context.Context, draft *model.CheckoutDraft) error
	Load(ctx context.Context, userID uuid.UUID) (*model.CheckoutDraft, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// ReservationLedger is the payment-window bookkeeping the services
// depend on.
type ReservationLedger interface {
	Reserve(ctx context.Context, orderID uuid.UUID) error
	Release(ctx context.Context, orderID uuid.UUID) error
}

// Gateway is the payment-gateway surface the services depend on.
type Gateway interface {
	BuildRequestForm(order *model.Order, productName, payerEmail string, itemCount int) (html string, merchantOrderNo string, err error)
	VerifyAndDecrypt(tradeInfoHex, tradeSha string) (*newebpay.Notification, error)
	DecryptNotification(tradeInfoHex string) (*newebpay.Notification, error)
}

// ListingInvalidator drops cached product listings after inventory
// changes.
type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Mailer aliases the mailer surface so service tests can stub it
// without importing SMTP machinery.
type Mailer = mailer.Mailer
