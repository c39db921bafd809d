package sweeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
	"lightkart/internal/repository"
)

// runTimeout bounds a single sweep run so a stuck database call cannot
// pile runs on top of each other forever.
const runTimeout = 2 * time.Minute

// ReservationScanner is the ledger surface the sweeper needs: liveness
// and the set of reservations whose payment window has closed.
type ReservationScanner interface {
	Ping(ctx context.Context) error
	ExpiredOrderIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Sweeper cancels orders whose payment window expired without a
// gateway notification. The minute pass follows the reservation ledger;
// the hourly pass goes straight to the database and catches orders
// whose reservation key was never written or was lost.
type Sweeper struct {
	orderRepo  repository.OrderRepository
	couponRepo repository.CouponRepository
	scanner    ReservationScanner
	cron       *cron.Cron
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a new sweeper. Call Start to begin sweeping.
func New(
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	scanner ReservationScanner,
	logger zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		orderRepo:  orderRepo,
		couponRepo: couponRepo,
		scanner:    scanner,
		cron:       cron.New(),
		logger:     logger.With().Str("component", "sweeper").Logger(),
		now:        time.Now,
	}
}

// Start schedules the sweep passes and begins running them.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.sweepExpiredReservations); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.sweepStalePending); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Msg("sweeper started")
	return nil
}

// Stop halts scheduling and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("sweeper stopped")
}

// sweepExpiredReservations is the minute pass. When the ledger is
// unreachable it runs the database pass instead, so an outage never
// extends the payment window.
func (s *Sweeper) sweepExpiredReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.scanner.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("reservation ledger unreachable; falling back to database sweep")
		s.sweepDatabase(ctx)
		return
	}

	orderIDs, err := s.scanner.ExpiredOrderIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to scan expired reservations")
		return
	}

	s.cancelAll(ctx, orderIDs)
}

// sweepStalePending is the hourly database pass. It also catches orders
// whose reservation key was never written.
func (s *Sweeper) sweepStalePending() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.sweepDatabase(ctx)
}

func (s *Sweeper) sweepDatabase(ctx context.Context) {
	cutoff := s.now().Add(-model.PaymentWindow)
	orders, err := s.orderRepo.FindExpiredPending(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to find stale pending orders")
		return
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}
	s.cancelAll(ctx, orderIDs)
}

// cancelAll cancels the orders one at a time, so one failure leaves the
// rest of the batch unaffected.
func (s *Sweeper) cancelAll(ctx context.Context, orderIDs []uuid.UUID) {
	for _, orderID := range orderIDs {
		if err := s.cancelOne(ctx, orderID); err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to cancel expired order")
		}
	}
}

// cancelOne cancels a single order if it is still pending, restoring
// the consumed coupon quantity in the same transaction. An order that
// was paid or canceled in the meantime is left untouched.
func (s *Sweeper) cancelOne(ctx context.Context, orderID uuid.UUID) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	couponID, changed, err := s.orderRepo.CancelPending(ctx, tx, orderID, s.now())
	if err != nil {
		return err
	}
	if !changed {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order no longer pending; nothing to cancel")
		return nil
	}

	if couponID != nil {
		if err = s.couponRepo.RestoreQuantity(ctx, tx, *couponID); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Bool("coupon_restored", couponID != nil).
		Msg("expired order canceled")
	return nil
}
