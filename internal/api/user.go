package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type UserService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*service.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*service.AuthSession, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	Profile(ctx context.Context, claims *auth.Claims) (*entity.User, error)
	SaveShippingAddresses(ctx context.Context, userID string, addresses []entity.ShippingAddress) ([]entity.ShippingAddress, error)
}

// CartDiscarder drops a cart session when its owner signs out.
type CartDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

type UserHandler struct {
	userService UserService
	carts       CartDiscarder
}

func NewUserHandler(userService UserService, carts CartDiscarder) *UserHandler {
	return &UserHandler{userService: userService, carts: carts}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *UserHandler) SignUp(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	session, err := h.userService.SignUp(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *UserHandler) SignIn(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	session, err := h.userService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *UserHandler) SignOut(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	if err := h.userService.SignOut(c.Request().Context(), claims); err != nil {
		return errorJSON(c, err)
	}

	if id := c.Request().Header.Get(SessionHeader); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			if err := h.carts.Discard(c.Request().Context(), id); err != nil {
				logger.Warn().Err(err).Msgf("Failed to discard cart %s on sign-out", id)
			}
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Me(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	user, err := h.userService.Profile(c.Request().Context(), claims)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SaveShippingAddresses(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req struct {
		Addresses []entity.ShippingAddress `json:"addresses"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	addresses, err := h.userService.SaveShippingAddresses(c.Request().Context(), claims.UserID, req.Addresses)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"addresses": addresses})
}
