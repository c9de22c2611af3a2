package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlacedOrder, error)
	GetOrder(ctx context.Context, id, userID string, admin bool) (*service.OrderView, error)
	ListUserOrders(ctx context.Context, userID string) ([]*service.OrderView, error)
	ListAllOrders(ctx context.Context) ([]*service.OrderView, error)
	CancelOrder(ctx context.Context, id, userID string) (*service.OrderView, error)
	StartPayment(ctx context.Context, id, userID string) (*service.PlacedOrder, error)
	UpdateOrderStatus(ctx context.Context, id string, status entity.OrderStatus) (*service.OrderView, error)
}

type PaymentService interface {
	VerifyPayment(ctx context.Context, req service.VerifyPaymentRequest) (*service.OrderView, error)
}

// OrderHandler handles order and payment requests
type OrderHandler struct {
	orderService   OrderService
	paymentService PaymentService
}

// NewOrderHandler creates a new instance of OrderHandler
func NewOrderHandler(orderService OrderService, paymentService PaymentService) *OrderHandler {
	return &OrderHandler{orderService: orderService, paymentService: paymentService}
}

type placeOrderRequest struct {
	ShippingAddress entity.ShippingAddress `json:"shipping_address"`
	PaymentMethod   entity.PaymentMethod   `json:"payment_method"`
}

// PlaceOrder turns the session cart into an order.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	placed, err := h.orderService.PlaceOrder(c.Request().Context(), service.PlaceOrderRequest{
		UserID:          claims.UserID,
		SessionID:       sessionID(c),
		IdempotencyKey:  c.Request().Header.Get(IdempotencyHeader),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		// The order may be stored even though payment could not start.
		if placed != nil && placed.Order != nil {
			return errorJSONWith(c, err, map[string]string{"order_id": placed.Order.ID})
		}
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, placed)
}

// StartPayment opens a new gateway order for an unpaid online order.
func (h *OrderHandler) StartPayment(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	placed, err := h.orderService.StartPayment(c.Request().Context(), c.Param("id"), claims.UserID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, placed)
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	orders, err := h.orderService.ListUserOrders(c.Request().Context(), claims.UserID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), c.Param("id"), claims.UserID, claims.IsAdmin())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	order, err := h.orderService.CancelOrder(c.Request().Context(), c.Param("id"), claims.UserID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	orders, err := h.orderService.ListAllOrders(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	var req struct {
		OrderStatus entity.OrderStatus `json:"order_status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request().Context(), c.Param("id"), req.OrderStatus)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// VerifyPayment confirms an online payment with the gateway's signature.
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req service.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	req.UserID = claims.UserID
	req.SessionID = sessionID(c)

	order, err := h.paymentService.VerifyPayment(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
