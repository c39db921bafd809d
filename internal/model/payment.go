package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatusSuccess is the only status recorded today; the gateway
// does not notify on failed attempts.
const PaymentStatusSuccess = "payment_success"

// Payment records a successful gateway transaction for an order.
// Rows are append-only: exactly one per reconciled order.
type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OrderID       uuid.UUID `json:"order_id" db:"order_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Status        string    `json:"status" db:"status"`
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
}
