package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightkart/internal/cache"
)

func TestReservationLedger_ReserveAndRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewReservationLedger(client, zerolog.Nop())
	ctx := context.Background()
	orderID := uuid.New()

	require.NoError(t, ledger.Reserve(ctx, orderID))

	key := cache.PendingOrderKey(orderID)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, cache.TTLPendingOrder, mr.TTL(key))

	require.NoError(t, ledger.Release(ctx, orderID))
	assert.False(t, mr.Exists(key))

	// Releasing an absent reservation is a no-op
	require.NoError(t, ledger.Release(ctx, orderID))
}

func TestReservationLedger_ExpiredOrderIDs_IgnoresLiveKeys(t *testing.T) {
	_, client := newTestRedis(t)
	ledger := NewReservationLedger(client, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, uuid.New()))
	require.NoError(t, ledger.Reserve(ctx, uuid.New()))

	expired, err := ledger.ExpiredOrderIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestReservationLedger_ExpiredOrderIDs_SkipsForeignKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewReservationLedger(client, zerolog.Nop())
	ctx := context.Background()

	mr.Set(cache.KeyFeaturedProducts, "[]")
	require.NoError(t, ledger.Reserve(ctx, uuid.New()))

	expired, err := ledger.ExpiredOrderIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestReservationLedger_Ping(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewReservationLedger(client, zerolog.Nop())

	require.NoError(t, ledger.Ping(context.Background()))

	mr.Close()
	assert.Error(t, ledger.Ping(context.Background()))
}

func TestOrderIDFromPendingKey(t *testing.T) {
	orderID := uuid.New()

	parsed, err := cache.OrderIDFromPendingKey(cache.PendingOrderKey(orderID))
	require.NoError(t, err)
	assert.Equal(t, orderID, parsed)

	_, err = cache.OrderIDFromPendingKey("checkout:abc")
	assert.Error(t, err)

	_, err = cache.OrderIDFromPendingKey("order:pending:not-a-uuid")
	assert.Error(t, err)
}
