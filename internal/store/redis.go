package store

import (
	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/handybook/config"
)

// NewRedisClient builds the shared client; callers own its lifecycle
// and close it on shutdown.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}
