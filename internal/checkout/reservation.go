package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lightkart/internal/cache"
)

// reservationMarker is the opaque value stored under a reservation key.
const reservationMarker = "pending"

// ReservationLedger marks orders as awaiting payment via TTL-bound Redis
// keys. Key presence means the payment window is open; absence after the
// key once existed signals cancellation eligibility to the sweeper.
type ReservationLedger struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewReservationLedger creates a new reservation ledger.
func NewReservationLedger(client *redis.Client, logger zerolog.Logger) *ReservationLedger {
	return &ReservationLedger{
		client: client,
		logger: logger.With().Str("component", "reservation-ledger").Logger(),
	}
}

// Reserve opens the payment window for an order.
func (l *ReservationLedger) Reserve(ctx context.Context, orderID uuid.UUID) error {
	key := cache.PendingOrderKey(orderID)
	if err := l.client.Set(ctx, key, reservationMarker, cache.TTLPendingOrder).Err(); err != nil {
		return fmt.Errorf("failed to reserve order %s: %w", orderID, err)
	}
	l.logger.Debug().Str("key", key).Msg("pending-order reservation set")
	return nil
}

// Release closes the payment window explicitly, on successful payment.
// Releasing an absent reservation is not an error.
func (l *ReservationLedger) Release(ctx context.Context, orderID uuid.UUID) error {
	if err := l.client.Del(ctx, cache.PendingOrderKey(orderID)).Err(); err != nil {
		return fmt.Errorf("failed to release reservation for order %s: %w", orderID, err)
	}
	return nil
}

// ExpiredOrderIDs scans the reservation namespace and returns the order
// ids whose key is gone by the time its TTL is checked. The scan
// intentionally lags eviction; the sweeper's database fallback covers
// keys the scan never sees.
func (l *ReservationLedger) ExpiredOrderIDs(ctx context.Context) ([]uuid.UUID, error) {
	var expired []uuid.UUID

	var cursor uint64
	for {
		keys, next, err := l.client.Scan(ctx, cursor, cache.PendingOrderPattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation keys: %w", err)
		}

		for _, key := range keys {
			ttl, err := l.client.TTL(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to read TTL for %s: %w", key, err)
			}
			// -2ns reports a key that no longer exists
			if ttl != -2 {
				continue
			}
			orderID, err := cache.OrderIDFromPendingKey(key)
			if err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("skipping malformed reservation key")
				continue
			}
			expired = append(expired, orderID)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return expired, nil
}

// Ping reports whether the ledger's Redis backend is reachable.
func (l *ReservationLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
