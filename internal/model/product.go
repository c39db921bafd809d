package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog item. Listings are single-unit: once an
// order for a product is paid, the product is no longer available.
type Product struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SellingPrice int64     `json:"selling_price" db:"selling_price"`
	IsAvailable  bool      `json:"is_available" db:"is_available"`
	IsSold       bool      `json:"is_sold" db:"is_sold"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CartItem is a line in a user's shopping cart. PriceAtTime snapshots
// the selling price when the item was added.
type CartItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	PriceAtTime int64     `json:"price_at_time" db:"price_at_time"`
}

// UserContact is the narrow slice of a user record the checkout flow
// needs for confirmation email delivery.
type UserContact struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}
