package cache

import (
	"fmt"

	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// EventGuardFactory creates event guards based on configuration
type EventGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// EventGuardFactoryOption is a functional option for configuring the factory
type EventGuardFactoryOption func(*EventGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) EventGuardFactoryOption {
	return func(f *EventGuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory guard
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) EventGuardFactoryOption {
	return func(f *EventGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewEventGuardFactory creates a new factory
func NewEventGuardFactory(cfg config.RedisConfig, opts ...EventGuardFactoryOption) *EventGuardFactory {
	f := &EventGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-based event guard
func (f *EventGuardFactory) CreateRedisGuard() (shared.EventGuard, error) {
	guard, err := NewRedisEventGuard(RedisGuardConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis event guard: %w", err)
	}

	return guard, nil
}

// CreateInMemoryGuard creates an in-memory event guard
func (f *EventGuardFactory) CreateInMemoryGuard() shared.EventGuard {
	return NewInMemoryEventGuard()
}

// CreateGuard tries to create a Redis guard first and falls back to an
// in-memory one if Redis is unavailable and fallback is allowed. The guard is
// a best-effort fast path in front of the durable webhook ledger, so losing
// cross-instance state degrades throughput, never correctness.
func (f *EventGuardFactory) CreateGuard() (shared.EventGuard, error) {
	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("using Redis event guard")
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for event guard but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory event guard",
		zap.Error(err),
	)
	return f.CreateInMemoryGuard(), nil
}
