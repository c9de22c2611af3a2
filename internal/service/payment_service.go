package service

import (
	"context"
	"strings"

	"storefront-service/internal/apperr"
	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
	"storefront-service/internal/realtime"
)

// SignatureVerifier checks a gateway's payment callback signature.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) (bool, error)
}

type VerifyPaymentRequest struct {
	UserID           string
	SessionID        string
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type PaymentService struct {
	orderRepo OrderRepository
	gate      SignatureVerifier
	carts     *cart.Registry
	publisher Publisher
}

func NewPaymentService(orderRepo OrderRepository, gate SignatureVerifier, carts *cart.Registry, publisher Publisher) *PaymentService {
	return &PaymentService{orderRepo: orderRepo, gate: gate, carts: carts, publisher: publisher}
}

// VerifyPayment marks an online order paid only when the gateway signature
// checks out. A bad signature marks the payment failed.
func (s *PaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*OrderView, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, apperr.Validation("order_id", "order id is required")
	}

	order, err := s.orderRepo.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if order.UserID != req.UserID {
		return nil, apperr.NotFound("order not found")
	}
	if order.PaymentMethod != entity.PaymentOnline {
		return nil, apperr.Validation("order_id", "order is not paid online")
	}
	if order.PaymentStatus == entity.PaymentPaid {
		return viewOf(order), nil
	}
	// Only a signature over the gateway order recorded for this order counts.
	if order.GatewayOrderID == "" {
		return nil, apperr.Payment("payment has not been started for this order", nil)
	}
	if order.GatewayOrderID != req.GatewayOrderID {
		return nil, apperr.Payment("payment does not belong to this order", nil)
	}

	ok, err := s.gate.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		logger.Error().Err(err).Msgf("Error verifying payment for order %s", order.ID)
		return nil, apperr.Payment("payment could not be verified", err)
	}

	if !ok {
		logger.Warn().Msgf("Payment signature mismatch for order %s", order.ID)
		order.PaymentStatus = entity.PaymentFailed
		if _, err := s.save(ctx, order); err != nil {
			return nil, err
		}
		return nil, apperr.Payment("payment verification failed", nil)
	}

	order.PaymentStatus = entity.PaymentPaid
	order.GatewayPaymentID = req.GatewayPaymentID
	view, err := s.save(ctx, order)
	if err != nil {
		return nil, err
	}

	if req.SessionID != "" {
		if _, err := s.carts.Open(ctx, req.SessionID).Clear(ctx); err != nil {
			logger.Error().Err(err).Msgf("Error clearing cart %s", req.SessionID)
		}
	}
	return view, nil
}

func (s *PaymentService) save(ctx context.Context, order *entity.Order) (*OrderView, error) {
	updatedOrder, err := s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating payment for order %s", order.ID)
		return nil, storeError(err, "order")
	}

	publish(ctx, s.publisher, realtime.EntityOrder, realtime.EventUpdated, updatedOrder.ID, updatedOrder)
	return viewOf(updatedOrder), nil
}
