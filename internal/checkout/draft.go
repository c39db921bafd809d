package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lightkart/internal/cache"
	"lightkart/internal/model"
)

// DraftStore holds each user's in-progress checkout selection in Redis,
// one key per user, replaced wholesale on every save.
type DraftStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewDraftStore creates a new draft store.
func NewDraftStore(client *redis.Client, logger zerolog.Logger) *DraftStore {
	return &DraftStore{
		client: client,
		logger: logger.With().Str("component", "draft-store").Logger(),
	}
}

// Save serialises and stores the draft, overwriting any prior draft for
// the same user and resetting the TTL.
func (s *DraftStore) Save(ctx context.Context, draft *model.CheckoutDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout draft: %w", err)
	}

	key := cache.CheckoutKey(draft.UserID)
	if err := s.client.Set(ctx, key, data, cache.TTLCheckoutDraft).Err(); err != nil {
		return fmt.Errorf("failed to store checkout draft: %w", err)
	}

	s.logger.Debug().Str("key", key).Msg("checkout draft stored")
	return nil
}

// Load returns the user's draft, or model.ErrDraftNotFound if it is
// absent or has expired.
func (s *DraftStore) Load(ctx context.Context, userID uuid.UUID) (*model.CheckoutDraft, error) {
	data, err := s.client.Get(ctx, cache.CheckoutKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to load checkout draft: %w", err)
	}

	var draft model.CheckoutDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout draft: %w", err)
	}
	return &draft, nil
}

// Clear deletes the user's draft. Deleting an absent draft is not an
// error.
func (s *DraftStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cache.CheckoutKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear checkout draft: %w", err)
	}
	return nil
}
