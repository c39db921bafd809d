package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

// ShippingFee is the flat shipping fee added to every order after any
// coupon discount, in the smallest currency unit.
const ShippingFee int64 = 60

// PaymentWindow is how long an order may stay pending before it is
// eligible for cancellation. The reservation key TTL and the database
// fallback sweep must agree on this value.
const PaymentWindow = 30 * time.Minute

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	Status          OrderStatus `json:"status" db:"status"`
	ShippingMethod  string      `json:"shipping_method" db:"shipping_method"`
	PaymentMethod   string      `json:"payment_method" db:"payment_method"`
	DesiredDate     string      `json:"desired_date" db:"desired_date"`
	CouponID        *uuid.UUID  `json:"coupon_id,omitempty" db:"coupon_id"`
	Amount          int64       `json:"amount" db:"amount"`
	MerchantOrderNo string      `json:"merchant_order_no" db:"merchant_order_no"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	CanceledAt      *time.Time  `json:"canceled_at,omitempty" db:"canceled_at"`
}

// OrderItem represents a line item in an order. Price is captured at
// order-creation time and never follows later catalog changes.
type OrderItem struct {
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     int64     `json:"price" db:"price"`
}

// OrderRequest is the request payload for creating an order from cart lines.
type OrderRequest struct {
	CartIDs []string `json:"cart_ids"`
}

// OrderDetail is the response payload for a single order, including the
// amount breakdown shown to the customer.
type OrderDetail struct {
	Order       Order       `json:"order"`
	Items       []OrderItem `json:"order_items"`
	Subtotal    int64       `json:"subtotal"`
	Discount    int64       `json:"discount"`
	ShippingFee int64       `json:"shipping_fee"`
}

// DiscountedAmount applies a coupon discount factor to a subtotal.
// The factor is in tenths: 8 means the customer pays 8/10 of the
// subtotal. The result is rounded to the nearest unit.
func DiscountedAmount(subtotal int64, discount int) int64 {
	return (subtotal*int64(discount) + 5) / 10
}
