package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lightkart/internal/mailer"
	"lightkart/internal/model"
	"lightkart/internal/repository"
)

// reconcileService implements ReconcileService.
type reconcileService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	ledger      ReservationLedger
	gateway     Gateway
	mailer      Mailer
	invalidator ListingInvalidator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	ledger ReservationLedger,
	gateway Gateway,
	m Mailer,
	invalidator ListingInvalidator,
	logger zerolog.Logger,
) ReconcileService {
	return &reconcileService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		gateway:     gateway,
		mailer:      m,
		invalidator: invalidator,
		logger:      logger.With().Str("service", "reconcile").Logger(),
		now:         time.Now,
	}
}

// HandleNotification verifies, decrypts, and applies a server-to-server
// payment notification. The order row is locked for the duration of the
// transaction so concurrent deliveries of the same notification settle
// one at a time.
func (s *reconcileService) HandleNotification(ctx context.Context, tradeInfo, tradeSha string) error {
	notification, err := s.gateway.VerifyAndDecrypt(tradeInfo, tradeSha)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected payment notification")
		return err
	}
	result := notification.Result

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByMerchantOrderNo(ctx, tx, result.MerchantOrderNo)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("merchant_order_no", result.MerchantOrderNo).
			Msg("failed to look up order for notification")
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		s.logger.Warn().
			Str("merchant_order_no", result.MerchantOrderNo).
			Str("trade_no", result.TradeNo).
			Msg("notification does not match any order")
		return err
	}

	switch order.Status {
	case model.OrderStatusPaid:
		// Gateways redeliver until acknowledged; the first delivery
		// already settled this order.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("trade_no", result.TradeNo).
			Msg("duplicate notification for paid order ignored")
		return nil
	case model.OrderStatusCanceled:
		err = model.ErrLatePayment
		s.logger.Error().
			Str("order_id", order.ID.String()).
			Str("trade_no", result.TradeNo).
			Int64("amount", result.Amt).
			Str("alert", "manual_reconciliation").
			Msg("payment arrived for canceled order; refund needed")
		return err
	}

	payment := &model.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		TransactionID: result.TradeNo,
		Status:        model.PaymentStatusSuccess,
		PaidAt:        result.PaidAt(s.now()),
	}
	if err = s.paymentRepo.Create(ctx, tx, payment); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record payment")
		return fmt.Errorf("failed to record payment: %w", err)
	}

	if err = s.orderRepo.MarkPaid(ctx, tx, order.ID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to mark order paid")
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	items, err := s.orderRepo.ItemsForOrder(ctx, tx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to load order items")
		return fmt.Errorf("failed to load order items: %w", err)
	}
	if len(items) == 0 {
		err = model.ErrDataNotFound
		s.logger.Error().Str("order_id", order.ID.String()).Msg("paid order has no items")
		return err
	}

	productIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	if err = s.productRepo.MarkSold(ctx, tx, productIDs); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to mark products sold")
		return fmt.Errorf("failed to mark products sold: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("trade_no", result.TradeNo).
		Int64("amount", result.Amt).
		Msg("payment reconciled")

	// Everything below is best-effort: the payment is committed and
	// none of these may fail the acknowledgement back to the gateway.
	if relErr := s.ledger.Release(ctx, order.ID); relErr != nil {
		s.logger.Warn().Err(relErr).Str("order_id", order.ID.String()).Msg("failed to release reservation")
	}
	if mailErr := s.sendConfirmation(ctx, order, items, payment); mailErr != nil {
		s.logger.Warn().Err(mailErr).Str("order_id", order.ID.String()).Msg("failed to send confirmation email")
	}
	if invErr := s.invalidator.Invalidate(ctx); invErr != nil {
		s.logger.Warn().Err(invErr).Msg("failed to invalidate product listings")
	}

	return nil
}

// ResolveReturn maps a browser return payload to the order it pays for.
// The browser flow carries no checksum worth trusting; nothing here
// mutates state, the redirect target is all that is derived.
func (s *reconcileService) ResolveReturn(ctx context.Context, tradeInfo string) (uuid.UUID, error) {
	notification, err := s.gateway.DecryptNotification(tradeInfo)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to decrypt return payload")
		return uuid.Nil, err
	}

	order, err := s.orderRepo.GetByMerchantOrderNo(ctx, notification.Result.MerchantOrderNo)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("merchant_order_no", notification.Result.MerchantOrderNo).
			Msg("failed to look up order for return")
		return uuid.Nil, fmt.Errorf("failed to resolve return: %w", err)
	}
	if order == nil {
		return uuid.Nil, model.ErrOrderNotFound
	}

	return order.ID, nil
}

// sendConfirmation assembles and sends the order confirmation email.
func (s *reconcileService) sendConfirmation(ctx context.Context, order *model.Order, items []model.OrderItem, payment *model.Payment) error {
	contact, err := s.userRepo.GetContact(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("no contact on record for user %s", order.UserID)
	}

	productIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to retrieve product details: %w", err)
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	var subtotal int64
	lines := make([]mailer.ProductLine, len(items))
	for i, item := range items {
		subtotal += item.Price * int64(item.Quantity)
		lines[i] = mailer.ProductLine{
			Name:     names[item.ProductID],
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	confirmation := &mailer.OrderConfirmation{
		CustomerName:  contact.Name,
		Email:         contact.Email,
		OrderNumber:   order.MerchantOrderNo,
		OrderDate:     payment.PaidAt,
		Products:      lines,
		Subtotal:      subtotal,
		Discount:      subtotal + model.ShippingFee - order.Amount,
		ShippingFee:   model.ShippingFee,
		Total:         order.Amount,
		PaymentMethod: order.PaymentMethod,
	}
	return s.mailer.SendOrderConfirmation(ctx, confirmation)
}
