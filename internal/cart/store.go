package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/entity"
)

// Store is the durable storage behind a session's ledger. Load returns nil
// entries and a nil error when nothing has been stored for the session.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]entity.CartEntry, error)
	Save(ctx context.Context, sessionID string, entries []entity.CartEntry) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore serializes the whole ledger as one JSON value per session.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]entity.CartEntry, error) {
	val, err := s.rdb.Get(ctx, cartKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entries []entity.CartEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	return entries, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, entries []entity.CartEntry) error {
	if entries == nil {
		entries = []entity.CartEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(sessionID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}
