package cache

import (
	"fmt"

	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/config"
)

// NewIdempotencyStore builds the idempotency store selected by configuration
func NewIdempotencyStore(cfg *config.Config) (shared.IdempotencyStore, error) {
	switch cfg.Idempotency.Backend {
	case "memory":
		return NewInMemoryIdempotencyStore(), nil
	case "redis":
		return NewRedisIdempotencyStore(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown idempotency backend: %q", cfg.Idempotency.Backend)
	}
}
