package consumer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Reservations remembers which stock an order actually took, so a
// cancellation only returns that and a redelivered event is not applied twice.
type Reservations interface {
	// Claim marks the order as handled by event and reports whether it was
	// the first event to do so.
	Claim(ctx context.Context, orderID, event string) (bool, error)
	Record(ctx context.Context, orderID, productID string, quantity int) error
	// Take returns and forgets everything recorded for the order.
	Take(ctx context.Context, orderID string) (map[string]int, error)
}

type RedisReservations struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReservations(rdb *redis.Client, ttl time.Duration) *RedisReservations {
	return &RedisReservations{rdb: rdb, ttl: ttl}
}

func claimKey(orderID string) string {
	return fmt.Sprintf("stock-order:%s", orderID)
}

func reservedKey(orderID string) string {
	return fmt.Sprintf("stock-reserved:%s", orderID)
}

func (r *RedisReservations) Claim(ctx context.Context, orderID, event string) (bool, error) {
	return r.rdb.SetNX(ctx, claimKey(orderID), event, r.ttl).Result()
}

func (r *RedisReservations) Record(ctx context.Context, orderID, productID string, quantity int) error {
	key := reservedKey(orderID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productID, int64(quantity))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	return err
}

func (r *RedisReservations) Take(ctx context.Context, orderID string) (map[string]int, error) {
	key := reservedKey(orderID)
	var all *redis.StringStringMapCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	taken := make(map[string]int, len(all.Val()))
	for productID, raw := range all.Val() {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("reservation %s/%s: %w", orderID, productID, err)
		}
		taken[productID] = quantity
	}
	return taken, nil
}
