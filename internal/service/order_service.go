package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lightkart/internal/model"
	"lightkart/internal/repository"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	drafts      DraftStore
	ledger      ReservationLedger
	gateway     Gateway
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
	drafts DraftStore,
	ledger ReservationLedger,
	gateway Gateway,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
		drafts:      drafts,
		ledger:      ledger,
		gateway:     gateway,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// CreateOrder turns the user's cart lines and checkout draft into a
// pending order and returns the payment gateway form. When a pending
// order already reserves the same products, no new order is created;
// the existing one gets a fresh gateway form instead.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, cartIDs []uuid.UUID) (*PaymentForm, error) {
	if len(cartIDs) == 0 {
		return nil, model.ErrInvalidFields
	}

	carts, err := s.cartRepo.GetByIDs(ctx, cartIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load cart lines")
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	if len(carts) == 0 {
		return nil, model.ErrInvalidFields
	}

	productIDs := make([]uuid.UUID, len(carts))
	for i, cart := range carts {
		productIDs[i] = cart.ProductID
	}

	unavailable, err := s.productRepo.CountUnavailable(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check product availability")
		return nil, fmt.Errorf("failed to check product availability: %w", err)
	}
	if unavailable > 0 {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Int("unavailable", unavailable).
			Msg("order rejected for unavailable products")
		return nil, model.ErrOutOfStock
	}

	draft, err := s.drafts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	// A pending order over the same products means the user double
	// submitted, or came back after abandoning the gateway page. Hand
	// back a fresh form for the existing order instead of reserving the
	// products twice.
	existing, err := s.orderRepo.FindPendingByProductSet(ctx, userID, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up pending orders")
		return nil, fmt.Errorf("failed to look up pending orders: %w", err)
	}
	if existing != nil {
		s.logger.Info().
			Str("order_id", existing.ID.String()).
			Str("user_id", userID.String()).
			Msg("reusing pending order for repeated submission")
		return s.renderForm(ctx, existing, productIDs[0], len(carts))
	}

	var subtotal int64
	for _, cart := range carts {
		subtotal += cart.PriceAtTime * int64(cart.Quantity)
	}

	now := s.now()
	order := &model.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         model.OrderStatusPending,
		ShippingMethod: draft.ShippingMethod,
		PaymentMethod:  draft.PaymentMethod,
		DesiredDate:    draft.DesiredDate,
		Amount:         subtotal + model.ShippingFee,
		CreatedAt:      now,
	}
	if draft.Coupon != nil {
		couponID := draft.Coupon.ID
		order.CouponID = &couponID
		order.Amount = model.DiscountedAmount(subtotal, draft.Coupon.Discount) + model.ShippingFee
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if order.CouponID != nil {
		if err = s.couponRepo.Consume(ctx, tx, *order.CouponID); err != nil {
			s.logger.Warn().
				Str("coupon_id", order.CouponID.String()).
				Err(err).
				Msg("failed to consume coupon")
			return nil, err
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]model.OrderItem, len(carts))
	for i, cart := range carts {
		items[i] = model.OrderItem{
			OrderID:   order.ID,
			ProductID: cart.ProductID,
			Quantity:  cart.Quantity,
			Price:     cart.PriceAtTime,
		}
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	var cleared int64
	if cleared, err = s.cartRepo.ClearUser(ctx, tx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if cleared == 0 {
		err = fmt.Errorf("cart already empty for user %s", userID)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The draft and the reservation live outside the database
	// transaction. Neither failure may undo the committed order: a
	// leftover draft expires on its own, and the database fallback sweep
	// covers a missing reservation key.
	if clearErr := s.drafts.Clear(ctx, userID); clearErr != nil {
		s.logger.Warn().Err(clearErr).Str("user_id", userID.String()).Msg("failed to clear checkout draft")
	}
	if resErr := s.ledger.Reserve(ctx, order.ID); resErr != nil {
		s.logger.Warn().Err(resErr).Str("order_id", order.ID.String()).Msg("failed to set pending-order reservation")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount", order.Amount).
		Int("item_count", len(items)).
		Msg("order created")

	return s.renderForm(ctx, order, productIDs[0], len(carts))
}

// GetByID retrieves the user's order with its items and amount
// breakdown.
func (s *orderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderDetail, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to retrieve order")
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.Price * int64(item.Quantity)
	}

	detail := &model.OrderDetail{
		Order:       *order,
		Items:       items,
		Subtotal:    subtotal,
		ShippingFee: model.ShippingFee,
	}
	if order.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, *order.CouponID)
		if err != nil {
			s.logger.Error().Err(err).Str("coupon_id", order.CouponID.String()).Msg("failed to retrieve coupon")
			return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
		}
		if coupon != nil {
			detail.Discount = subtotal - model.DiscountedAmount(subtotal, coupon.Discount)
		}
	}

	return detail, nil
}

// ListByUser retrieves the user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// RenderPendingOrderForm regenerates the payment gateway form for an
// order that is still pending, under a fresh merchant order number.
func (s *orderService) RenderPendingOrderForm(ctx context.Context, userID, orderID uuid.UUID) (*PaymentForm, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to retrieve order")
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	if order == nil || order.UserID != userID || order.Status != model.OrderStatusPending {
		return nil, model.ErrOrderNotFound
	}

	productIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	unavailable, err := s.productRepo.CountUnavailable(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check product availability")
		return nil, fmt.Errorf("failed to check product availability: %w", err)
	}
	if unavailable > 0 {
		return nil, model.ErrOutOfStock
	}

	return s.renderForm(ctx, order, productIDs[0], len(items))
}

// renderForm builds the gateway form for the order and persists the
// freshly generated merchant order number, so the later notification
// can be matched back to this order.
func (s *orderService) renderForm(ctx context.Context, order *model.Order, firstProductID uuid.UUID, itemCount int) (*PaymentForm, error) {
	contact, err := s.userRepo.GetContact(ctx, order.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", order.UserID.String()).Msg("failed to retrieve user contact")
		return nil, fmt.Errorf("failed to retrieve user contact: %w", err)
	}
	if contact == nil {
		return nil, model.ErrDataNotFound
	}

	products, err := s.productRepo.GetByIDs(ctx, []uuid.UUID{firstProductID})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to retrieve product details")
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}
	if len(products) == 0 {
		return nil, model.ErrDataNotFound
	}

	html, merchantOrderNo, err := s.gateway.BuildRequestForm(order, products[0].Name, contact.Email, itemCount)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to build gateway form")
		return nil, fmt.Errorf("failed to build gateway form: %w", err)
	}

	if err := s.orderRepo.UpdateMerchantOrderNo(ctx, order.ID, merchantOrderNo); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("merchant_order_no", merchantOrderNo).
			Msg("failed to store merchant order number")
		return nil, fmt.Errorf("failed to store merchant order number: %w", err)
	}
	order.MerchantOrderNo = merchantOrderNo

	return &PaymentForm{OrderID: order.ID, HTML: html}, nil
}
