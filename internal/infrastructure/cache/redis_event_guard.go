package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/santabrisa/backend/internal/domain/shared"
)

// RedisEventGuard implements shared.EventGuard using Redis. It is the fast
// path in front of the durable webhook ledger: a duplicate delivery caught
// here skips the database round trip entirely. Suitable for distributed
// deployments where multiple intake instances share state.
type RedisEventGuard struct {
	client    *redis.Client
	keyPrefix string
}

// RedisGuardConfig holds Redis connection configuration
type RedisGuardConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisEventGuard creates a new Redis-based event guard
func NewRedisEventGuard(cfg RedisGuardConfig) (*RedisEventGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEventGuard{
		client:    client,
		keyPrefix: "webhook:seen:",
	}, nil
}

// NewRedisEventGuardWithClient creates a guard with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisEventGuardWithClient(client *redis.Client, keyPrefix string) *RedisEventGuard {
	if keyPrefix == "" {
		keyPrefix = "webhook:seen:"
	}
	return &RedisEventGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkSeen records an external id with a TTL. Returns true if the id was
// newly recorded, false if it was already present. Uses SETNX so concurrent
// deliveries of the same event resolve to exactly one first sighting.
func (g *RedisEventGuard) MarkSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	key := g.keyPrefix + externalID

	result, err := g.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as seen: %w", err)
	}

	return result, nil
}

// Close closes the Redis client
func (g *RedisEventGuard) Close() error {
	return g.client.Close()
}

// Ensure RedisEventGuard implements EventGuard
var _ shared.EventGuard = (*RedisEventGuard)(nil)
