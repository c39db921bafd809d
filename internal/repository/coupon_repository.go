package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
)

const couponColumns = `id, code, discount, quantity, distributed_quantity, start_at, end_at, is_available`

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Discount, &c.Quantity, &c.DistributedQuantity,
		&c.StartAt, &c.EndAt, &c.IsAvailable)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a coupon by its ID.
func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	coupon, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by its code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coupon by code: %w", err)
	}
	return coupon, nil
}

// Consume atomically decrements the coupon's remaining quantity and
// increments its distributed quantity. The quantity guard keeps two
// racing checkouts from driving the counter negative.
func (r *couponRepository) Consume(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	ct, err := tx.Exec(ctx, `
		UPDATE coupons
		SET quantity = quantity - 1, distributed_quantity = distributed_quantity + 1
		WHERE id = $1 AND quantity > 0
	`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to consume coupon")
		return fmt.Errorf("failed to consume coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return model.ErrCouponExhausted
	}
	return nil
}

// RestoreQuantity increments the coupon's remaining quantity for orders
// canceled unpaid; distributed quantity stays as distributed.
func (r *couponRepository) RestoreQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE coupons SET quantity = quantity + 1 WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to restore coupon quantity")
		return fmt.Errorf("failed to restore coupon quantity: %w", err)
	}
	return nil
}

// Upsert inserts the coupon or updates it in place, keyed by code. Seeded
// definitions refresh the window and discount but never clobber live
// quantity counters.
func (r *couponRepository) Upsert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO coupons (id, code, discount, quantity, distributed_quantity, start_at, end_at, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE
		SET discount = EXCLUDED.discount,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			is_available = EXCLUDED.is_available
	`, coupon.ID, coupon.Code, coupon.Discount, coupon.Quantity, coupon.DistributedQuantity,
		coupon.StartAt, coupon.EndAt, coupon.IsAvailable)
	if err != nil {
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to upsert coupon")
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}
	return nil
}
