package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
)

const orderColumns = `id, user_id, status, shipping_method, payment_method, desired_date,
		coupon_id, amount, merchant_order_no, created_at, canceled_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, status, shipping_method, payment_method,
			desired_date, coupon_id, amount, merchant_order_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Status, order.ShippingMethod, order.PaymentMethod,
		order.DesiredDate, order.CouponID, order.Amount, order.MerchantOrderNo, order.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.ShippingMethod,
		&order.PaymentMethod,
		&order.DesiredDate,
		&order.CouponID,
		&order.Amount,
		&order.MerchantOrderNo,
		&order.CreatedAt,
		&order.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.queryItems(ctx, r.pool, id)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListByUser retrieves the user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// FindPendingByProductSet finds the user's pending order whose line items
// overlap the given product set, by joining order items.
func (r *orderRepository) FindPendingByProductSet(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (*model.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT o.id, o.user_id, o.status, o.shipping_method, o.payment_method,
			o.desired_date, o.coupon_id, o.amount, o.merchant_order_no, o.created_at, o.canceled_at
		FROM orders o
		INNER JOIN order_items i ON i.order_id = o.id
		WHERE o.user_id = $1 AND o.status = $2 AND i.product_id = ANY($3)
		LIMIT 1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, userID, model.OrderStatusPending, productIDs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query pending order")
		return nil, fmt.Errorf("failed to query pending order: %w", err)
	}

	return order, nil
}

// GetByMerchantOrderNo retrieves an order by its merchant order number.
func (r *orderRepository) GetByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE merchant_order_no = $1`, merchantOrderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query order by merchant order no: %w", err)
	}
	return order, nil
}

// LockByMerchantOrderNo retrieves an order by its merchant order number
// within the transaction, holding the row lock until commit so the
// reconciler and the sweeper serialise on the same order.
func (r *orderRepository) LockByMerchantOrderNo(ctx context.Context, tx pgx.Tx, merchantOrderNo string) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE merchant_order_no = $1 FOR UPDATE`, merchantOrderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock order by merchant order no: %w", err)
	}
	return order, nil
}

// UpdateMerchantOrderNo stores a freshly generated merchant order number
// on the order.
func (r *orderRepository) UpdateMerchantOrderNo(ctx context.Context, orderID uuid.UUID, merchantOrderNo string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET merchant_order_no = $2 WHERE id = $1`, orderID, merchantOrderNo)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to update merchant order no")
		return fmt.Errorf("failed to update merchant order no: %w", err)
	}
	return nil
}

// MarkPaid transitions the order to paid within the provided transaction.
func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, orderID, model.OrderStatusPaid)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("failed to mark order paid: order %s not found", orderID)
	}
	return nil
}

// CancelPending transitions the order to canceled only when it is still
// pending; paid orders are never touched.
func (r *orderRepository) CancelPending(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, canceledAt time.Time) (*uuid.UUID, bool, error) {
	var couponID *uuid.UUID
	err := tx.QueryRow(ctx, `
		UPDATE orders SET status = $2, canceled_at = $3
		WHERE id = $1 AND status = $4
		RETURNING coupon_id
	`, orderID, model.OrderStatusCanceled, canceledAt, model.OrderStatusPending).Scan(&couponID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to cancel order: %w", err)
	}
	return couponID, true, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *orderRepository) queryItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ItemsForOrder retrieves the order's line items within the provided
// transaction.
func (r *orderRepository) ItemsForOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	return r.queryItems(ctx, tx, orderID)
}

// FindExpiredPending retrieves pending orders created before the cutoff,
// the database fallback signal for the expiry sweep.
func (r *orderRepository) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 AND created_at < $2`,
		model.OrderStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired pending orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired pending orders: %w", err)
	}

	return orders, nil
}

// HasPaidOrderWithCoupon reports whether the user already has a paid
// order that consumed the coupon.
func (r *orderRepository) HasPaidOrderWithCoupon(ctx context.Context, userID, couponID uuid.UUID) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND coupon_id = $2 AND status = $3`,
		userID, couponID, model.OrderStatusPaid).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query coupon usage: %w", err)
	}
	return count > 0, nil
}
