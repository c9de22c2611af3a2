package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/apperr"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
	"storefront-service/internal/realtime"
)

const idempotencyTTL = 24 * time.Hour

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetOrderByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*entity.Order, error)
	ListOrders(ctx context.Context) ([]*entity.Order, error)
}

type PlaceOrderRequest struct {
	UserID          string
	SessionID       string
	IdempotencyKey  string
	ShippingAddress entity.ShippingAddress
	PaymentMethod   entity.PaymentMethod
}

// PlacedOrder is returned from checkout. Gateway is set for online payments.
type PlacedOrder struct {
	Order   *entity.Order         `json:"order"`
	Gateway *payment.GatewayOrder `json:"gateway,omitempty"`
}

// OrderView adds the tracking position to an order.
type OrderView struct {
	*entity.Order
	TrackingStep int `json:"tracking_step"`
}

// OrderService is a service that provides order-related operations
type OrderService struct {
	orderRepo OrderRepository
	carts     *cart.Registry
	composer  *checkout.Composer
	gateway   payment.Gateway
	publisher Publisher
	rdb       *redis.Client
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo OrderRepository, carts *cart.Registry, composer *checkout.Composer, gateway payment.Gateway, publisher Publisher, rdb *redis.Client) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		carts:     carts,
		composer:  composer,
		gateway:   gateway,
		publisher: publisher,
		rdb:       rdb,
	}
}

func viewOf(order *entity.Order) *OrderView {
	return &OrderView{Order: order, TrackingStep: order.OrderStatus.Step()}
}

// PlaceOrder composes an order from the session's cart and stores it. COD
// orders clear the cart right away; online orders keep it until payment is
// verified.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlacedOrder, error) {
	if req.IdempotencyKey != "" {
		fresh, err := s.claimIdempotentKey(ctx, req.IdempotencyKey)
		if err != nil {
			logger.Error().Err(err).Msg("Error checking idempotent key")
			return nil, apperr.External("something went wrong, please try again", err)
		}
		if !fresh {
			return nil, apperr.Conflict("idempotent key already exists")
		}
	}

	placed, err := s.placeOrder(ctx, req)
	if err != nil && placed == nil && req.IdempotencyKey != "" {
		// Keep the key once an order exists so a retry cannot duplicate it.
		s.releaseIdempotentKey(ctx, req.IdempotencyKey)
	}
	return placed, err
}

func (s *OrderService) placeOrder(ctx context.Context, req PlaceOrderRequest) (*PlacedOrder, error) {
	session := s.carts.Open(ctx, req.SessionID)

	order, err := s.composer.Compose(session.Entries(), req.ShippingAddress, req.PaymentMethod, req.UserID)
	if err != nil {
		return nil, err
	}

	createdOrder, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		return nil, storeError(err, "order")
	}

	publish(ctx, s.publisher, realtime.EntityOrder, realtime.EventCreated, createdOrder.ID, createdOrder)

	if createdOrder.PaymentMethod == entity.PaymentCOD {
		if _, err := session.Clear(ctx); err != nil {
			logger.Error().Err(err).Msgf("Error clearing cart %s", req.SessionID)
		}
		return &PlacedOrder{Order: createdOrder}, nil
	}

	return s.startPayment(ctx, createdOrder)
}

// startPayment creates a gateway order for an online order and records its
// id. On failure the stored order is still returned so the client can retry
// through StartPayment.
func (s *OrderService) startPayment(ctx context.Context, order *entity.Order) (*PlacedOrder, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.ID, payment.AmountMinor(order.Total), map[string]string{
		"orderId": order.ID,
		"userId":  order.UserID,
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating gateway order for %s", order.ID)
		return &PlacedOrder{Order: order}, apperr.Payment("could not start payment, please try again", err)
	}

	order.GatewayOrderID = gatewayOrder.ID
	updatedOrder, err := s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error saving gateway order for %s", order.ID)
		return &PlacedOrder{Order: order}, storeError(err, "order")
	}

	return &PlacedOrder{Order: updatedOrder, Gateway: gatewayOrder}, nil
}

// StartPayment creates a fresh gateway order for the owner's unpaid online
// order, replacing any earlier one.
func (s *OrderService) StartPayment(ctx context.Context, id, userID string) (*PlacedOrder, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	if order.PaymentMethod != entity.PaymentOnline {
		return nil, apperr.Validation("order_id", "order is not paid online")
	}
	if order.OrderStatus != entity.OrderPending || order.PaymentStatus == entity.PaymentPaid {
		return nil, apperr.Validation("order_status", "only unpaid pending orders can be paid")
	}
	return s.startPayment(ctx, order)
}

// GetOrder returns an order to its owner, or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string, admin bool) (*OrderView, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if !admin && order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	return viewOf(order), nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]*OrderView, error) {
	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing orders for user %s", userID)
		return nil, storeError(err, "order")
	}
	return viewsOf(orders), nil
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]*OrderView, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, storeError(err, "order")
	}
	return viewsOf(orders), nil
}

func viewsOf(orders []*entity.Order) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, viewOf(order))
	}
	return views
}

// CancelOrder lets a customer cancel their own order while it is pending.
func (s *OrderService) CancelOrder(ctx context.Context, id, userID string) (*OrderView, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	if order.OrderStatus != entity.OrderPending {
		return nil, apperr.Validation("order_status", "only pending orders can be cancelled")
	}

	order.OrderStatus = entity.OrderCancelled
	return s.saveStatus(ctx, order, realtime.EventCancelled)
}

// UpdateOrderStatus is the admin status change. A COD order marked delivered
// is also marked paid.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status entity.OrderStatus) (*OrderView, error) {
	if !status.Valid() {
		return nil, apperr.Validation("order_status", fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if order.OrderStatus == entity.OrderCancelled && status != entity.OrderCancelled {
		return nil, apperr.Validation("order_status", "cancelled orders cannot be reopened")
	}

	event := realtime.EventUpdated
	if status == entity.OrderCancelled && order.OrderStatus != entity.OrderCancelled {
		event = realtime.EventCancelled
	}

	order.OrderStatus = status
	if status == entity.OrderDelivered && order.PaymentMethod == entity.PaymentCOD {
		order.PaymentStatus = entity.PaymentPaid
	}
	return s.saveStatus(ctx, order, event)
}

func (s *OrderService) saveStatus(ctx context.Context, order *entity.Order, event string) (*OrderView, error) {
	updatedOrder, err := s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating order %s", order.ID)
		return nil, storeError(err, "order")
	}

	publish(ctx, s.publisher, realtime.EntityOrder, event, updatedOrder.ID, updatedOrder)
	return viewOf(updatedOrder), nil
}

func idempotentKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// claimIdempotentKey records key for 24 hours and reports whether it was new.
func (s *OrderService) claimIdempotentKey(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, idempotentKey(key), "exists", idempotencyTTL).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ok, nil
}

// releaseIdempotentKey frees a key whose order was never stored so the
// client can retry with it.
func (s *OrderService) releaseIdempotentKey(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, idempotentKey(key)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error releasing idempotent key %s", key)
	}
}
