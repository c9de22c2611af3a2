package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/auth"
	"storefront-service/internal/realtime"
	"storefront-service/internal/service"
)

const heartbeatInterval = 15 * time.Second

type OrderReader interface {
	GetOrder(ctx context.Context, id, userID string, admin bool) (*service.OrderView, error)
}

// StreamHandler pushes realtime events to browsers as server-sent events.
type StreamHandler struct {
	broker    *realtime.Broker
	orders    OrderReader
	heartbeat time.Duration
}

func NewStreamHandler(broker *realtime.Broker, orders OrderReader) *StreamHandler {
	return &StreamHandler{broker: broker, orders: orders, heartbeat: heartbeatInterval}
}

func (h *StreamHandler) Products(c echo.Context) error {
	return h.stream(c, realtime.ProductsChannel, nil)
}

func (h *StreamHandler) Categories(c echo.Context) error {
	return h.stream(c, realtime.CategoriesChannel, nil)
}

// Order streams one order's changes to its owner, starting with the
// current snapshot.
func (h *StreamHandler) Order(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	order, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"), claims.UserID, claims.IsAdmin())
	if err != nil {
		return errorJSON(c, err)
	}
	return h.stream(c, realtime.OrderChannel(order.ID), order)
}

func (h *StreamHandler) stream(c echo.Context, channel string, initial interface{}) error {
	ctx := c.Request().Context()
	events := h.broker.Subscribe(ctx, channel)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if initial != nil {
		payload, err := json.Marshal(initial)
		if err != nil {
			return err
		}
		if err := writeEvent(res, "snapshot", payload); err != nil {
			return nil
		}
	}
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(res, ev.Entity+"."+ev.Type, ev.Payload); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("Stream client went away")
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
