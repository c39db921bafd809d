package cache

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lightkart/internal/model"
)

const (
	// Checkout draft: checkout:{user_id} -> CheckoutDraft JSON
	KeyCheckoutDraft = "checkout:%s"

	// Pending-order reservation: order:pending:{order_id} -> "pending".
	// Key presence means the payment window is still open.
	KeyPendingOrder = "order:pending:%s"

	// PendingOrderPattern matches every reservation key for SCAN.
	PendingOrderPattern = "order:pending:*"

	// Cached homepage product listings
	KeyFeaturedProducts = "products:featured"
	KeyLatestProducts   = "products:latest"
)

var (
	TTLCheckoutDraft = model.PaymentWindow
	TTLPendingOrder  = model.PaymentWindow
)

// CheckoutKey returns the draft-store key for a user.
func CheckoutKey(userID uuid.UUID) string {
	return fmt.Sprintf(KeyCheckoutDraft, userID)
}

// PendingOrderKey returns the reservation key for an order.
func PendingOrderKey(orderID uuid.UUID) string {
	return fmt.Sprintf(KeyPendingOrder, orderID)
}

// OrderIDFromPendingKey extracts the order id from a reservation key.
func OrderIDFromPendingKey(key string) (uuid.UUID, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "order" || parts[1] != "pending" {
		return uuid.Nil, fmt.Errorf("not a pending-order key: %s", key)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order id in key %s: %w", key, err)
	}
	return id, nil
}
