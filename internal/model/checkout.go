package model

import "github.com/google/uuid"

// Shipping and payment methods accepted at checkout. More methods are
// planned but only these are offered today.
const (
	ShippingMethodHomeDelivery = "home_delivery"

	PaymentMethodCreditCard = "credit_card"
)

// ValidShippingMethod reports whether the method is currently offered.
func ValidShippingMethod(method string) bool {
	return method == ShippingMethodHomeDelivery
}

// ValidPaymentMethod reports whether the method is currently offered.
func ValidPaymentMethod(method string) bool {
	return method == PaymentMethodCreditCard
}

// DraftCoupon is the coupon snapshot embedded in a checkout draft.
type DraftCoupon struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Discount int       `json:"discount"`
}

// CheckoutDraft is the ephemeral checkout selection held in the draft
// store between checkout submission and order creation. Drafts are
// replaced wholesale, never patched field by field.
type CheckoutDraft struct {
	UserID         uuid.UUID    `json:"user_id"`
	ShippingMethod string       `json:"shipping_method"`
	PaymentMethod  string       `json:"payment_method"`
	DesiredDate    string       `json:"desired_date"`
	Coupon         *DraftCoupon `json:"coupon,omitempty"`
}

// CheckoutRequest is the request payload for submitting checkout
// preferences.
type CheckoutRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	ShippingMethod string `json:"shipping_method"`
	PaymentMethod  string `json:"payment_method"`
	DesiredDate    string `json:"desired_date"`
	CouponCode     string `json:"coupon_code,omitempty"`
}
