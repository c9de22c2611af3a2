package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
	"storefront-service/internal/realtime"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "stock-consumer").Logger()

// StockKeeper moves product stock in response to order events.
type StockKeeper interface {
	ReserveProductStock(ctx context.Context, productID string, quantity int) error
	ReleaseProductStock(ctx context.Context, productID string, quantity int) error
}

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Consumer struct {
	stock        StockKeeper
	reservations Reservations
}

func NewConsumer(stock StockKeeper, reservations Reservations) *Consumer {
	return &Consumer{stock: stock, reservations: reservations}
}

// Run reads order events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, reader Reader) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage reserves stock for created orders and returns it for
// cancelled ones. Other order events are ignored.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "order.created.<id>" or "order.cancelled.<id>"
	entityName, eventType, orderID, err := realtime.ParseKey(string(msg.Key))
	if err != nil || entityName != realtime.EntityOrder {
		logger.Warn().Msgf("Skipping message with key %q", msg.Key)
		return
	}

	var order entity.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		logger.Error().Msgf("Error unmarshalling order %s: %v", orderID, err)
		return
	}
	if order.ID == "" {
		order.ID = orderID
	}

	switch eventType {
	case realtime.EventCreated:
		c.reserve(ctx, &order)
	case realtime.EventCancelled:
		c.release(ctx, &order)
	}
}

// reserve takes stock for each line item once per order, recording only the
// items whose stock was actually taken.
func (c *Consumer) reserve(ctx context.Context, order *entity.Order) {
	first, err := c.reservations.Claim(ctx, order.ID, realtime.EventCreated)
	if err != nil {
		logger.Error().Msgf("Error claiming order %s: %v", order.ID, err)
		return
	}
	if !first {
		logger.Info().Msgf("Skipping already handled order %s", order.ID)
		return
	}

	for _, item := range order.Items {
		if err := c.stock.ReserveProductStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Error().Msgf("Error reserving stock for product %s: %v", item.ProductID, err)
			continue
		}
		if err := c.reservations.Record(ctx, order.ID, item.ProductID, item.Quantity); err != nil {
			logger.Error().Msgf("Error recording reservation for order %s: %v", order.ID, err)
		}
	}
}

// release returns what the order reserved. A cancellation that arrives first
// claims the order so a late creation event reserves nothing.
func (c *Consumer) release(ctx context.Context, order *entity.Order) {
	if _, err := c.reservations.Claim(ctx, order.ID, realtime.EventCancelled); err != nil {
		logger.Error().Msgf("Error claiming order %s: %v", order.ID, err)
		return
	}

	reserved, err := c.reservations.Take(ctx, order.ID)
	if err != nil {
		logger.Error().Msgf("Error reading reservations for order %s: %v", order.ID, err)
		return
	}

	for _, item := range order.Items {
		quantity, ok := reserved[item.ProductID]
		if !ok {
			continue
		}
		if err := c.stock.ReleaseProductStock(ctx, item.ProductID, quantity); err != nil {
			logger.Error().Msgf("Error releasing stock for product %s: %v", item.ProductID, err)
		}
	}
}
