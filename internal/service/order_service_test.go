package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lightkart/internal/model"
)

// orderServiceMocks bundles the collaborators of an order service under
// test.
type orderServiceMocks struct {
	orderRepo   *MockOrderRepository
	productRepo *MockProductRepository
	cartRepo    *MockCartRepository
	couponRepo  *MockCouponRepository
	userRepo    *MockUserRepository
	drafts      *MockDraftStore
	ledger      *MockReservationLedger
	gateway     *MockGateway
}

func newOrderServiceMocks() *orderServiceMocks {
	return &orderServiceMocks{
		orderRepo:   new(MockOrderRepository),
		productRepo: new(MockProductRepository),
		cartRepo:    new(MockCartRepository),
		couponRepo:  new(MockCouponRepository),
		userRepo:    new(MockUserRepository),
		drafts:      new(MockDraftStore),
		ledger:      new(MockReservationLedger),
		gateway:     new(MockGateway),
	}
}

func (m *orderServiceMocks) service() OrderService {
	return NewOrderService(
		m.orderRepo, m.productRepo, m.cartRepo, m.couponRepo, m.userRepo,
		m.drafts, m.ledger, m.gateway, zerolog.Nop(),
	)
}

// expectFormRendering wires the collaborators renderForm touches.
func (m *orderServiceMocks) expectFormRendering(ctx context.Context, userID uuid.UUID, firstProductID uuid.UUID) {
	m.userRepo.On("GetContact", ctx, userID).
		Return(&model.UserContact{ID: userID, Name: "Jamie Doe", Email: "jamie@example.com"}, nil)
	m.productRepo.On("GetByIDs", ctx, []uuid.UUID{firstProductID}).
		Return([]model.Product{{ID: firstProductID, Name: "Nikon FM2"}}, nil)
	m.gateway.On("BuildRequestForm", mock.AnythingOfType("*model.Order"), "Nikon FM2", "jamie@example.com", mock.AnythingOfType("int")).
		Return("<form></form>", "1748764800", nil)
	m.orderRepo.On("UpdateMerchantOrderNo", ctx, mock.AnythingOfType("uuid.UUID"), "1748764800").Return(nil)
}

func twoLineCart(userID uuid.UUID) ([]model.CartItem, []uuid.UUID, []uuid.UUID) {
	cartIDs := []uuid.UUID{uuid.New(), uuid.New()}
	productIDs := []uuid.UUID{uuid.New(), uuid.New()}
	carts := []model.CartItem{
		{ID: cartIDs[0], UserID: userID, ProductID: productIDs[0], Quantity: 1, PriceAtTime: 400},
		{ID: cartIDs[1], UserID: userID, ProductID: productIDs[1], Quantity: 1, PriceAtTime: 600},
	}
	return carts, cartIDs, productIDs
}

func TestOrderService_CreateOrder_WithoutCoupon(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()
	mockTx := new(MockTx)

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(&model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: model.ShippingMethodHomeDelivery,
		PaymentMethod:  model.PaymentMethodCreditCard,
	}, nil)
	m.orderRepo.On("FindPendingByProductSet", ctx, userID, productIDs).Return(nil, nil)
	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Amount == 1060 && o.Status == model.OrderStatusPending && o.CouponID == nil
	})).Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	m.cartRepo.On("ClearUser", ctx, mockTx, userID).Return(int64(2), nil)
	mockTx.On("Commit", ctx).Return(nil)
	m.drafts.On("Clear", ctx, userID).Return(nil)
	m.ledger.On("Reserve", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)
	m.expectFormRendering(ctx, userID, productIDs[0])

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	require.NoError(t, err)
	require.NotNil(t, form)
	assert.NotEqual(t, uuid.Nil, form.OrderID)
	assert.Contains(t, form.HTML, "<form")

	m.orderRepo.AssertExpectations(t)
	m.cartRepo.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	mockTx.AssertExpectations(t)
	m.couponRepo.AssertNotCalled(t, "Consume")
}

func TestOrderService_CreateOrder_WithCoupon(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	couponID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()
	mockTx := new(MockTx)

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(&model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: model.ShippingMethodHomeDelivery,
		PaymentMethod:  model.PaymentMethodCreditCard,
		Coupon:         &model.DraftCoupon{ID: couponID, Code: "SUMMER8", Discount: 8},
	}, nil)
	m.orderRepo.On("FindPendingByProductSet", ctx, userID, productIDs).Return(nil, nil)
	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.couponRepo.On("Consume", ctx, mockTx, couponID).Return(nil)
	// 1000 subtotal at 8/10 is 800, plus the flat 60 shipping fee.
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Amount == 860 && o.CouponID != nil && *o.CouponID == couponID
	})).Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	m.cartRepo.On("ClearUser", ctx, mockTx, userID).Return(int64(2), nil)
	mockTx.On("Commit", ctx).Return(nil)
	m.drafts.On("Clear", ctx, userID).Return(nil)
	m.ledger.On("Reserve", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)
	m.expectFormRendering(ctx, userID, productIDs[0])

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	require.NoError(t, err)
	require.NotNil(t, form)

	m.couponRepo.AssertExpectations(t)
	m.orderRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestOrderService_CreateOrder_CouponExhausted(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	couponID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()
	mockTx := new(MockTx)

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(&model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: model.ShippingMethodHomeDelivery,
		PaymentMethod:  model.PaymentMethodCreditCard,
		Coupon:         &model.DraftCoupon{ID: couponID, Code: "GONE", Discount: 8},
	}, nil)
	m.orderRepo.On("FindPendingByProductSet", ctx, userID, productIDs).Return(nil, nil)
	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.couponRepo.On("Consume", ctx, mockTx, couponID).Return(model.ErrCouponExhausted)
	mockTx.On("Rollback", ctx).Return(nil)

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	assert.ErrorIs(t, err, model.ErrCouponExhausted)
	assert.Nil(t, form)
	assert.True(t, mockTx.rolledBack)
	m.orderRepo.AssertNotCalled(t, "CreateOrder")
	mockTx.AssertNotCalled(t, "Commit")
}

func TestOrderService_CreateOrder_OutOfStock(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(1, nil)

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	assert.ErrorIs(t, err, model.ErrOutOfStock)
	assert.Nil(t, form)
	m.drafts.AssertNotCalled(t, "Load")
	m.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_CreateOrder_MissingDraft(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(nil, model.ErrDraftNotFound)

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	assert.ErrorIs(t, err, model.ErrDraftNotFound)
	assert.Nil(t, form)
	m.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_CreateOrder_ReusesPendingOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	existing := &model.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: model.OrderStatusPending,
		Amount: 1060,
	}

	m := newOrderServiceMocks()

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(&model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: model.ShippingMethodHomeDelivery,
		PaymentMethod:  model.PaymentMethodCreditCard,
	}, nil)
	m.orderRepo.On("FindPendingByProductSet", ctx, userID, productIDs).Return(existing, nil)
	m.expectFormRendering(ctx, userID, productIDs[0])

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	require.NoError(t, err)
	require.NotNil(t, form)
	assert.Equal(t, existing.ID, form.OrderID)

	// No second order surfaces for a double submission.
	m.orderRepo.AssertNotCalled(t, "BeginTx")
	m.orderRepo.AssertNotCalled(t, "CreateOrder")
	m.ledger.AssertNotCalled(t, "Reserve")
}

func TestOrderService_CreateOrder_ReserveFailureDoesNotFailOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	carts, cartIDs, productIDs := twoLineCart(userID)

	m := newOrderServiceMocks()
	mockTx := new(MockTx)

	m.cartRepo.On("GetByIDs", ctx, cartIDs).Return(carts, nil)
	m.productRepo.On("CountUnavailable", ctx, productIDs).Return(0, nil)
	m.drafts.On("Load", ctx, userID).Return(&model.CheckoutDraft{
		UserID:         userID,
		ShippingMethod: model.ShippingMethodHomeDelivery,
		PaymentMethod:  model.PaymentMethodCreditCard,
	}, nil)
	m.orderRepo.On("FindPendingByProductSet", ctx, userID, productIDs).Return(nil, nil)
	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	m.cartRepo.On("ClearUser", ctx, mockTx, userID).Return(int64(2), nil)
	mockTx.On("Commit", ctx).Return(nil)
	m.drafts.On("Clear", ctx, userID).Return(assert.AnError)
	m.ledger.On("Reserve", ctx, mock.AnythingOfType("uuid.UUID")).Return(assert.AnError)
	m.expectFormRendering(ctx, userID, productIDs[0])

	form, err := m.service().CreateOrder(ctx, userID, cartIDs)

	// The database fallback sweep covers the missing reservation; the
	// committed order must still reach the gateway.
	require.NoError(t, err)
	require.NotNil(t, form)
	assert.True(t, mockTx.committed)
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	m := newOrderServiceMocks()

	form, err := m.service().CreateOrder(context.Background(), uuid.New(), nil)

	assert.ErrorIs(t, err, model.ErrInvalidFields)
	assert.Nil(t, form)
	m.cartRepo.AssertNotCalled(t, "GetByIDs")
}

func TestOrderService_GetByID_Breakdown(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()
	couponID := uuid.New()

	order := &model.Order{
		ID:       orderID,
		UserID:   userID,
		Status:   model.OrderStatusPaid,
		CouponID: &couponID,
		Amount:   860,
	}
	items := []model.OrderItem{
		{OrderID: orderID, ProductID: uuid.New(), Quantity: 1, Price: 400},
		{OrderID: orderID, ProductID: uuid.New(), Quantity: 1, Price: 600},
	}

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, items, nil)
	m.couponRepo.On("GetByID", ctx, couponID).Return(&model.Coupon{
		ID: couponID, Code: "SUMMER8", Discount: 8,
		StartAt: time.Now().Add(-time.Hour), EndAt: time.Now().Add(time.Hour),
		IsAvailable: true,
	}, nil)

	detail, err := m.service().GetByID(ctx, userID, orderID)

	require.NoError(t, err)
	assert.Equal(t, int64(1000), detail.Subtotal)
	assert.Equal(t, int64(200), detail.Discount)
	assert.Equal(t, model.ShippingFee, detail.ShippingFee)
	assert.Equal(t, int64(860), detail.Order.Amount)
	assert.Len(t, detail.Items, 2)
}

func TestOrderService_GetByID_WrongUser(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	order := &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending}

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, []model.OrderItem{}, nil)

	detail, err := m.service().GetByID(ctx, uuid.New(), orderID)

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Nil(t, detail)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(nil, nil, nil)

	detail, err := m.service().GetByID(ctx, uuid.New(), orderID)

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Nil(t, detail)
}

func TestOrderService_RenderPendingOrderForm(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	order := &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPending, Amount: 1060}
	items := []model.OrderItem{{OrderID: orderID, ProductID: productID, Quantity: 1, Price: 1000}}

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, items, nil)
	m.productRepo.On("CountUnavailable", ctx, []uuid.UUID{productID}).Return(0, nil)
	m.expectFormRendering(ctx, userID, productID)

	form, err := m.service().RenderPendingOrderForm(ctx, userID, orderID)

	require.NoError(t, err)
	assert.Equal(t, orderID, form.OrderID)
	m.orderRepo.AssertCalled(t, "UpdateMerchantOrderNo", ctx, orderID, "1748764800")
}

func TestOrderService_RenderPendingOrderForm_NotPending(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()

	order := &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPaid}

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, []model.OrderItem{}, nil)

	form, err := m.service().RenderPendingOrderForm(ctx, userID, orderID)

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Nil(t, form)
}

func TestOrderService_RenderPendingOrderForm_ProductGone(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	order := &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPending}
	items := []model.OrderItem{{OrderID: orderID, ProductID: productID, Quantity: 1, Price: 1000}}

	m := newOrderServiceMocks()
	m.orderRepo.On("GetByID", ctx, orderID).Return(order, items, nil)
	m.productRepo.On("CountUnavailable", ctx, []uuid.UUID{productID}).Return(1, nil)

	form, err := m.service().RenderPendingOrderForm(ctx, userID, orderID)

	assert.ErrorIs(t, err, model.ErrOutOfStock)
	assert.Nil(t, form)
	m.gateway.AssertNotCalled(t, "BuildRequestForm")
}

func TestOrderService_ListByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	orders := []model.Order{
		{ID: uuid.New(), UserID: userID, Status: model.OrderStatusPaid},
		{ID: uuid.New(), UserID: userID, Status: model.OrderStatusCanceled},
	}

	m := newOrderServiceMocks()
	m.orderRepo.On("ListByUser", ctx, userID).Return(orders, nil)

	got, err := m.service().ListByUser(ctx, userID)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
