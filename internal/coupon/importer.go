package coupon

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
	"lightkart/internal/repository"
)

// Importer upserts coupon seed definitions into the coupon table at
// startup. Definitions are keyed by code: a rerun updates the discount
// and the validity window but never resets the live quantity counters.
type Importer struct {
	loader     Loader
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewImporter creates a new coupon importer.
func NewImporter(loader Loader, couponRepo repository.CouponRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:     loader,
		couponRepo: couponRepo,
		logger:     logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Run loads the seed definitions and upserts each one.
func (i *Importer) Run(ctx context.Context) error {
	defs, err := i.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load coupon seeds: %w", err)
	}

	for _, def := range defs {
		c := &model.Coupon{
			ID:          uuid.New(),
			Code:        def.Code,
			Discount:    def.Discount,
			Quantity:    def.Quantity,
			StartAt:     def.StartAt,
			EndAt:       def.EndAt,
			IsAvailable: def.IsAvailable,
		}
		if err := i.couponRepo.Upsert(ctx, c); err != nil {
			i.logger.Error().Err(err).Str("code", def.Code).Msg("failed to upsert coupon")
			return fmt.Errorf("failed to upsert coupon %s: %w", def.Code, err)
		}
	}

	i.logger.Info().Int("coupons", len(defs)).Msg("coupon seeds imported")
	return nil
}
