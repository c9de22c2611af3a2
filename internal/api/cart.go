package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) service.CartSummary
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (service.CartSummary, error)
	UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (service.CartSummary, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (service.CartSummary, error)
	Clear(ctx context.Context, sessionID string) (service.CartSummary, error)
}

// CartHandler serves the cart of the session named by X-Session-ID. Routes
// must be wrapped in CartSession.
type CartHandler struct {
	cartService CartService
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cartService.GetCart(c.Request().Context(), sessionID(c)))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	summary, err := h.cartService.AddItem(c.Request().Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	summary, err := h.cartService.UpdateItem(c.Request().Context(), sessionID(c), c.Param("productId"), req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	summary, err := h.cartService.RemoveItem(c.Request().Context(), sessionID(c), c.Param("productId"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) Clear(c echo.Context) error {
	summary, err := h.cartService.Clear(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
