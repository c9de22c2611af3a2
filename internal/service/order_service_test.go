package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
	"storefront-service/internal/realtime"
)

type orderFixture struct {
	svc     *OrderService
	orders  *memOrders
	carts   *cart.Registry
	gateway *fakeGateway
	pub     *recordingPublisher
	mr      *miniredis.Miniredis
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	rdb, mr := newRedis(t)
	f := &orderFixture{
		orders:  newMemOrders(),
		carts:   cart.NewRegistry(cart.NewRedisStore(rdb, time.Hour)),
		gateway: &fakeGateway{},
		pub:     &recordingPublisher{},
		mr:      mr,
	}
	composer := checkout.NewComposer()
	composer.Now = func() time.Time { return testTime }
	composer.NewID = func() string { return "order-1" }
	f.svc = NewOrderService(f.orders, f.carts, composer, f.gateway, f.pub, rdb)
	return f
}

func (f *orderFixture) fillCart(t *testing.T, sessionID string, products ...*entity.Product) {
	t.Helper()
	session := f.carts.Open(context.Background(), sessionID)
	for _, p := range products {
		_, err := session.Add(context.Background(), *p, 2)
		require.NoError(t, err)
	}
}

func validAddress() entity.ShippingAddress {
	return entity.ShippingAddress{
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		AddressLine1: "12 Lake Rd",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	}
}

func TestOrderService_PlaceCODOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "sess", testProduct("p1", 300, 5, true))

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:          "u1",
		SessionID:       "sess",
		IdempotencyKey:  "key-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   entity.PaymentCOD,
	})
	require.NoError(t, err)
	assert.Nil(t, placed.Gateway)
	assert.True(t, placed.Order.Total.Equal(decimal.NewFromInt(600)))
	assert.True(t, placed.Order.ShippingCost.IsZero())
	assert.Equal(t, 0, f.gateway.calls)

	assert.Empty(t, f.carts.Open(context.Background(), "sess").Entries())
	assert.Equal(t, []published{{realtime.EntityOrder, realtime.EventCreated, "order-1"}}, f.pub.events)
	assert.True(t, f.mr.Exists("idempotent-key:key-1"))
}

func TestOrderService_PlaceOnlineOrderKeepsCart(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "sess", testProduct("p1", 120, 5, false))

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:          "u1",
		SessionID:       "sess",
		ShippingAddress: validAddress(),
		PaymentMethod:   entity.PaymentOnline,
	})
	require.NoError(t, err)
	require.NotNil(t, placed.Gateway)

	// 240 subtotal + 50 shipping
	assert.Equal(t, int64(29000), f.gateway.amount)
	assert.Equal(t, "order-1", f.gateway.notes["orderId"])
	assert.Equal(t, "order_order-1", placed.Order.GatewayOrderID)

	stored, err := f.orders.GetOrderByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order_order-1", stored.GatewayOrderID)
	assert.Equal(t, entity.PaymentPending, stored.PaymentStatus)
	assert.Len(t, f.carts.Open(context.Background(), "sess").Entries(), 1)
}

func TestOrderService_IdempotentReplay(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "sess", testProduct("p1", 300, 5, true))
	req := PlaceOrderRequest{UserID: "u1", SessionID: "sess", IdempotencyKey: "key-1", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentCOD}

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestOrderService_FailedCompositionReleasesKey(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "sess", testProduct("p1", 300, 5, false))
	req := PlaceOrderRequest{UserID: "u1", SessionID: "sess", IdempotencyKey: "key-1", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentCOD}

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "COD unavailable", appErr.Message)
	assert.False(t, f.mr.Exists("idempotent-key:key-1"))
	assert.Empty(t, f.orders.orders)
	assert.Len(t, f.carts.Open(context.Background(), "sess").Entries(), 1)
}

func TestOrderService_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1", SessionID: "empty", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentCOD})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.pub.events)
}

func TestOrderService_GatewayFailureKeepsOrderAndKey(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.err = errors.New("gateway timeout")
	f.fillCart(t, "sess", testProduct("p1", 300, 5, true))

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1", SessionID: "sess", IdempotencyKey: "key-1", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentOnline,
	})
	assert.True(t, apperr.Is(err, apperr.KindPayment))
	assert.True(t, f.mr.Exists("idempotent-key:key-1"))
	assert.Len(t, f.orders.orders, 1)
	require.NotNil(t, placed)
	assert.Equal(t, "order-1", placed.Order.ID)
	assert.Nil(t, placed.Gateway)
}

func TestOrderService_StartPaymentAfterGatewayFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.err = errors.New("gateway timeout")
	f.fillCart(t, "sess", testProduct("p1", 300, 5, true))
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		UserID: "u1", SessionID: "sess", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentOnline,
	})
	require.Error(t, err)
	stored, err := f.orders.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, stored.GatewayOrderID)

	_, err = f.svc.StartPayment(ctx, "order-1", "u2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	f.gateway.err = nil
	placed, err := f.svc.StartPayment(ctx, "order-1", "u1")
	require.NoError(t, err)
	require.NotNil(t, placed.Gateway)
	assert.Equal(t, "order_order-1", placed.Gateway.ID)
	assert.Equal(t, int64(60000), placed.Gateway.Amount)

	stored, err = f.orders.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order_order-1", stored.GatewayOrderID)
}

func TestOrderService_StartPaymentRejects(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.orders["cod"] = storedOrder("cod", "u1", entity.PaymentCOD, entity.OrderPending)
	paid := storedOrder("paid", "u1", entity.PaymentOnline, entity.OrderPending)
	paid.PaymentStatus = entity.PaymentPaid
	f.orders.orders["paid"] = paid
	f.orders.orders["shipped"] = storedOrder("shipped", "u1", entity.PaymentOnline, entity.OrderShipped)
	ctx := context.Background()

	for _, id := range []string{"cod", "paid", "shipped"} {
		_, err := f.svc.StartPayment(ctx, id, "u1")
		assert.True(t, apperr.Is(err, apperr.KindValidation), id)
	}
	assert.Equal(t, 0, f.gateway.calls)
}

func TestOrderService_StoreFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.createErr = errStoreDown
	f.fillCart(t, "sess", testProduct("p1", 300, 5, true))

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1", SessionID: "sess", ShippingAddress: validAddress(), PaymentMethod: entity.PaymentCOD})
	assert.True(t, apperr.Is(err, apperr.KindExternal))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Len(t, f.carts.Open(context.Background(), "sess").Entries(), 1)
}

func storedOrder(id, userID string, method entity.PaymentMethod, status entity.OrderStatus) *entity.Order {
	return &entity.Order{
		ID:            id,
		UserID:        userID,
		PaymentMethod: method,
		PaymentStatus: entity.PaymentPending,
		OrderStatus:   status,
		Total:         decimal.NewFromInt(290),
		CreatedAt:     testTime,
	}
}

func TestOrderService_GetOrderOwnerOnly(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.orders["o1"] = storedOrder("o1", "u1", entity.PaymentCOD, entity.OrderShipped)

	view, err := f.svc.GetOrder(context.Background(), "o1", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TrackingStep)

	_, err = f.svc.GetOrder(context.Background(), "o1", "u2", false)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.GetOrder(context.Background(), "o1", "admin", true)
	assert.NoError(t, err)
}

func TestOrderService_CancelOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.orders["o1"] = storedOrder("o1", "u1", entity.PaymentCOD, entity.OrderPending)
	f.orders.orders["o2"] = storedOrder("o2", "u1", entity.PaymentCOD, entity.OrderShipped)

	view, err := f.svc.CancelOrder(context.Background(), "o1", "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, view.OrderStatus)
	assert.Equal(t, -1, view.TrackingStep)
	assert.Equal(t, []published{{realtime.EntityOrder, realtime.EventCancelled, "o1"}}, f.pub.events)

	_, err = f.svc.CancelOrder(context.Background(), "o2", "u1")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CancelOrder(context.Background(), "o2", "u2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.orders["cod"] = storedOrder("cod", "u1", entity.PaymentCOD, entity.OrderShipped)
	f.orders.orders["online"] = storedOrder("online", "u1", entity.PaymentOnline, entity.OrderShipped)
	ctx := context.Background()

	view, err := f.svc.UpdateOrderStatus(ctx, "cod", entity.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, view.PaymentStatus)

	view, err = f.svc.UpdateOrderStatus(ctx, "online", entity.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPending, view.PaymentStatus)

	_, err = f.svc.UpdateOrderStatus(ctx, "online", entity.OrderStatus("lost"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateOrderStatus(ctx, "online", entity.OrderCancelled)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, "online", entity.OrderConfirmed)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, realtime.EventCancelled, f.pub.events[len(f.pub.events)-1].event)
}

func TestOrderService_TotalsNeverRewritten(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.orders["o1"] = storedOrder("o1", "u1", entity.PaymentCOD, entity.OrderPending)

	_, err := f.svc.UpdateOrderStatus(context.Background(), "o1", entity.OrderConfirmed)
	require.NoError(t, err)

	stored, err := f.orders.GetOrderByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(290)))
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newOrderFixture(t)
	older := storedOrder("o1", "u1", entity.PaymentCOD, entity.OrderPending)
	newer := storedOrder("o2", "u1", entity.PaymentCOD, entity.OrderPending)
	newer.CreatedAt = testTime.Add(time.Hour)
	f.orders.orders["o1"] = older
	f.orders.orders["o2"] = newer
	f.orders.orders["o3"] = storedOrder("o3", "u2", entity.PaymentCOD, entity.OrderPending)

	mine, err := f.svc.ListUserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o2", mine[0].ID)

	all, err := f.svc.ListAllOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
