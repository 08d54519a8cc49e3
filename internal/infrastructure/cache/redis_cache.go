package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ArticlesDigest/internal/ports"
)

const (
	keyPrefix  = "articlesdigest:seen:"
	DefaultTTL = 30 * 24 * time.Hour
)

// RedisSeenCache remembers item IDs for a limited time so repeated fetches
// can skip the database round trip.
type RedisSeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SeenCache = (*RedisSeenCache)(nil)

// Connect parses a redis:// URL (a bare host:port is accepted too) and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisSeenCache wraps a client; ttl <= 0 falls back to DefaultTTL.
func NewRedisSeenCache(client *redis.Client, ttl time.Duration) *RedisSeenCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSeenCache{client: client, ttl: ttl}
}

// Seen reports which of ids were marked within the TTL.
func (c *RedisSeenCache) Seen(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(ids) == 0 {
		return result, nil
	}

	cmds := make([]*redis.IntCmd, len(ids))
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Exists(ctx, seenKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check seen ids: %w", err)
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			result[ids[i]] = true
		}
	}
	return result, nil
}

// MarkSeen records ids, refreshing the TTL of ones already present.
func (c *RedisSeenCache) MarkSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, seenKey(id), 1, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark seen ids: %w", err)
	}
	return nil
}

func seenKey(id string) string {
	return keyPrefix + id
}
