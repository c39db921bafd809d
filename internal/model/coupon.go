package model

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a shared mutable counter: Quantity is decremented when an
// order consumes the coupon and incremented back if that order is later
// canceled unpaid. DistributedQuantity only ever grows.
type Coupon struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	Code                string    `json:"code" db:"code"`
	Discount            int       `json:"discount" db:"discount"`
	Quantity            int       `json:"quantity" db:"quantity"`
	DistributedQuantity int       `json:"distributed_quantity" db:"distributed_quantity"`
	StartAt             time.Time `json:"start_at" db:"start_at"`
	EndAt               time.Time `json:"end_at" db:"end_at"`
	IsAvailable         bool      `json:"is_available" db:"is_available"`
}

// InPeriod reports whether the coupon is usable at the given instant,
// inclusive of both window ends.
func (c *Coupon) InPeriod(now time.Time) bool {
	return !now.Before(c.StartAt) && !now.After(c.EndAt)
}
