package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidFields   = "INVALID_FIELDS"
	ErrCodeDraftNotFound   = "DRAFT_NOT_FOUND"
	ErrCodeOutOfStock      = "OUT_OF_STOCK"
	ErrCodeCouponNotFound  = "COUPON_NOT_FOUND"
	ErrCodeCouponPeriod    = "COUPON_PERIOD"
	ErrCodeCouponUsed      = "COUPON_ALREADY_USED"
	ErrCodeCouponExhausted = "COUPON_EXHAUSTED"
	ErrCodeIntegrity       = "INTEGRITY_FAILURE"
	ErrCodeOrderNotFound   = "ORDER_NOT_FOUND"
	ErrCodeDataNotFound    = "DATA_NOT_FOUND"
	ErrCodeLatePayment     = "LATE_PAYMENT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure with a stable code for API
// responses.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidFields   = NewDomainError(ErrCodeInvalidFields, "One or more fields are missing or incorrect")
	ErrDraftNotFound   = NewDomainError(ErrCodeDraftNotFound, "Please complete the checkout step first")
	ErrOutOfStock      = NewDomainError(ErrCodeOutOfStock, "One or more selected products are no longer available")
	ErrCouponNotFound  = NewDomainError(ErrCodeCouponNotFound, "Coupon not found")
	ErrCouponPeriod    = NewDomainError(ErrCodeCouponPeriod, "Coupon is outside its validity period")
	ErrCouponUsed      = NewDomainError(ErrCodeCouponUsed, "Coupon has already been used")
	ErrCouponExhausted = NewDomainError(ErrCodeCouponExhausted, "Coupon has no remaining quantity")
	ErrIntegrity       = NewDomainError(ErrCodeIntegrity, "Payment notification checksum mismatch")
	ErrOrderNotFound   = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrDataNotFound    = NewDomainError(ErrCodeDataNotFound, "Data not found")
	ErrLatePayment     = NewDomainError(ErrCodeLatePayment, "Payment received for a canceled order")
)
