package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/car-rental-reservation/internal/draft"
)

// RedisSlot keeps one user's server-hosted draft in Redis.  Every write
// refreshes the TTL so abandoned drafts expire on their own.
type RedisSlot struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisSlot returns the slot for userID under prefix.  A zero ttl keeps
// the key forever.
func NewRedisSlot(rdb *redis.Client, prefix string, userID uint64, ttl time.Duration) *RedisSlot {
	if prefix == "" {
		prefix = "draft"
	}
	return &RedisSlot{
		rdb: rdb,
		key: fmt.Sprintf("%s:%s:%d", prefix, draft.SlotKey, userID),
		ttl: ttl,
	}
}

// Key is the Redis key backing the slot.
func (s *RedisSlot) Key() string { return s.key }

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, draft.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read draft slot: %w", err)
	}
	return b, nil
}

func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write draft slot: %w", err)
	}
	return nil
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear draft slot: %w", err)
	}
	return nil
}
