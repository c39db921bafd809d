package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
	"lightkart/internal/repository"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	couponRepo repository.CouponRepository
	orderRepo  repository.OrderRepository
	drafts     DraftStore
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	couponRepo repository.CouponRepository,
	orderRepo repository.OrderRepository,
	drafts DraftStore,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		couponRepo: couponRepo,
		orderRepo:  orderRepo,
		drafts:     drafts,
		logger:     logger.With().Str("service", "checkout").Logger(),
		now:        time.Now,
	}
}

// SubmitDraft validates the checkout selection and stores it as the
// user's current draft, replacing any previous one.
func (s *checkoutService) SubmitDraft(ctx context.Context, userID uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutDraft, error) {
	if err := validateCheckoutRequest(req); err != nil {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Err(err).
			Msg("invalid checkout request")
		return nil, err
	}

	draft := &model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		DesiredDate:    req.DesiredDate,
	}

	if req.CouponCode != "" {
		draftCoupon, err := s.resolveCoupon(ctx, userID, req.CouponCode)
		if err != nil {
			return nil, err
		}
		draft.Coupon = draftCoupon
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		s.logger.Error().
			Str("user_id", userID.String()).
			Err(err).
			Msg("failed to store checkout draft")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Bool("has_coupon", draft.Coupon != nil).
		Msg("checkout draft stored")

	return draft, nil
}

// resolveCoupon turns a coupon code into the snapshot embedded in the
// draft, rejecting coupons outside their period or already spent on a
// paid order by this user. The remaining-quantity counter is not
// touched here; it is decremented when the order is created.
func (s *checkoutService) resolveCoupon(ctx context.Context, userID uuid.UUID, code string) (*model.DraftCoupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Str("coupon_code", code).Err(err).Msg("failed to look up coupon")
		return nil, err
	}
	if coupon == nil || !coupon.IsAvailable {
		return nil, model.ErrCouponNotFound
	}

	if !coupon.InPeriod(s.now()) {
		s.logger.Warn().
			Str("coupon_code", code).
			Time("start_at", coupon.StartAt).
			Time("end_at", coupon.EndAt).
			Msg("coupon outside validity period")
		return nil, model.ErrCouponPeriod
	}

	used, err := s.orderRepo.HasPaidOrderWithCoupon(ctx, userID, coupon.ID)
	if err != nil {
		s.logger.Error().Str("coupon_code", code).Err(err).Msg("failed to check coupon usage")
		return nil, err
	}
	if used {
		return nil, model.ErrCouponUsed
	}

	return &model.DraftCoupon{
		ID:       coupon.ID,
		Code:     coupon.Code,
		Discount: coupon.Discount,
	}, nil
}

// validateCheckoutRequest checks required fields and the offered
// method sets.
func validateCheckoutRequest(req *model.CheckoutRequest) error {
	if req == nil {
		return model.ErrInvalidFields
	}
	if req.Name == "" || req.Email == "" || req.Address == "" || req.Phone == "" {
		return model.ErrInvalidFields
	}
	if !model.ValidShippingMethod(req.ShippingMethod) {
		return model.ErrInvalidFields
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return model.ErrInvalidFields
	}
	if req.DesiredDate != "" {
		if _, err := time.Parse("2006-01-02", req.DesiredDate); err != nil {
			return model.ErrInvalidFields
		}
	}
	return nil
}
