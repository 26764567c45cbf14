package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/shared"
	"github.com/erp/posbridge/internal/infrastructure/config"
)

// StoreMode decides what OpenIdempotencyStore does when Redis is enabled but
// does not answer
type StoreMode int

const (
	// PreferRedis degrades to the in-memory store. Duplicate deliveries are then
	// only caught within one process lifetime.
	PreferRedis StoreMode = iota
	// RequireRedis fails instead
	RequireRedis
)

// OpenIdempotencyStore returns the receipt store for the deployment: Redis when
// enabled and reachable, the in-memory store otherwise.
func OpenIdempotencyStore(cfg config.RedisConfig, mode StoreMode, log *zap.Logger) (shared.IdempotencyStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Info("Redis disabled, receipts are remembered in memory")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	switch {
	case err == nil:
		log.Info("Receipts are remembered in Redis", zap.String("addr", cfg.Addr()))
		return store, nil
	case mode == RequireRedis:
		return nil, fmt.Errorf("receipt store requires redis at %s: %w", cfg.Addr(), err)
	default:
		log.Warn("Redis unreachable, receipts are remembered in memory", zap.String("addr", cfg.Addr()), zap.Error(err))
		return NewInMemoryIdempotencyStore(), nil
	}
}
