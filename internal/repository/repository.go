package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lightkart/internal/model"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ListByUser retrieves the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// FindPendingByProductSet finds the user's pending order whose line
	// items overlap the given product set. Returns nil when none exists.
	FindPendingByProductSet(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (*model.Order, error)

	// GetByMerchantOrderNo retrieves an order by its merchant order number.
	// Returns nil when none exists.
	GetByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*model.Order, error)

	// LockByMerchantOrderNo retrieves an order by its merchant order number
	// within the transaction, holding a row lock until commit. Returns nil
	// when none exists.
	LockByMerchantOrderNo(ctx context.Context, tx pgx.Tx, merchantOrderNo string) (*model.Order, error)

	// UpdateMerchantOrderNo stores a freshly generated merchant order
	// number on the order.
	UpdateMerchantOrderNo(ctx context.Context, orderID uuid.UUID, merchantOrderNo string) error

	// MarkPaid transitions the order to paid within the provided transaction.
	MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// CancelPending transitions the order to canceled if and only if it is
	// still pending, returning the consumed coupon id (if any) and whether
	// a row was changed.
	CancelPending(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, canceledAt time.Time) (*uuid.UUID, bool, error)

	// ItemsForOrder retrieves the order's line items within the provided
	// transaction.
	ItemsForOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// FindExpiredPending retrieves pending orders created before the cutoff.
	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Order, error)

	// HasPaidOrderWithCoupon reports whether the user already has a paid
	// order that consumed the coupon.
	HasPaidOrderWithCoupon(ctx context.Context, userID, couponID uuid.UUID) (bool, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// CountUnavailable counts how many of the given products are currently
	// not available for sale.
	CountUnavailable(ctx context.Context, ids []uuid.UUID) (int, error)

	// MarkSold flags the products as sold and unavailable within the
	// provided transaction.
	MarkSold(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetByIDs retrieves cart lines by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.CartItem, error)

	// ClearUser deletes all of the user's cart lines within the provided
	// transaction, returning the number of rows removed.
	ClearUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error)
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetByID retrieves a coupon by its ID. Returns nil when none exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)

	// GetByCode retrieves a coupon by its code. Returns nil when none exists.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// Consume atomically decrements the coupon's remaining quantity and
	// increments its distributed quantity within the provided transaction.
	// Fails with model.ErrCouponExhausted when the remaining quantity
	// cannot absorb the decrement.
	Consume(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// RestoreQuantity increments the coupon's remaining quantity within
	// the provided transaction, for orders canceled unpaid. The
	// distributed quantity is left unchanged.
	RestoreQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Upsert inserts the coupon or updates it in place, keyed by code.
	Upsert(ctx context.Context, coupon *model.Coupon) error
}

// PaymentRepository defines the interface for payment data access operations.
type PaymentRepository interface {
	// Create inserts a payment row within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
}

// UserRepository defines the narrow read surface the checkout flow needs
// from the user store.
type UserRepository interface {
	// GetContact retrieves the user's name and email. Returns nil when the
	// user does not exist.
	GetContact(ctx context.Context, id uuid.UUID) (*model.UserContact, error)
}
