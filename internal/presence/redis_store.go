package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a Redis set per auction. The whole set
// shares one TTL that is refreshed on every join, which matches the
// advisory nature of presence: observer counts may briefly overshoot
// after a crash but converge once the key expires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed presence store. A non-positive ttl
// falls back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(auctionID string) string {
	return fmt.Sprintf("auction:presence:{%s}", auctionID)
}

// Join adds the user to the auction's observer set.
func (s *RedisStore) Join(auctionID, userID string) error {
	ctx := context.Background()
	key := s.key(auctionID)

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence join %s/%s: %w", auctionID, userID, err)
	}
	return nil
}

// Leave removes the user from the auction's observer set.
func (s *RedisStore) Leave(auctionID, userID string) error {
	ctx := context.Background()
	if err := s.client.SRem(ctx, s.key(auctionID), userID).Err(); err != nil {
		return fmt.Errorf("presence leave %s/%s: %w", auctionID, userID, err)
	}
	return nil
}

// Count returns the number of observers of the auction.
func (s *RedisStore) Count(auctionID string) (int, error) {
	ctx := context.Background()
	n, err := s.client.SCard(ctx, s.key(auctionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("presence count %s: %w", auctionID, err)
	}
	return int(n), nil
}

// Purge is a no-op for Redis; key TTLs expire entries server-side.
func (s *RedisStore) Purge() error { return nil }
