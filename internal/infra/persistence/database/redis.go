package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/probelab/probelab-app/pkg/config"
)

// NewRedisClient connects to Redis if an address is configured. It returns
// nil when Redis is absent or unreachable; callers fall back to the
// in-process cache.
func NewRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	addr := cfg.GetString(config.KeyRedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.GetString(config.KeyRedisPassword),
		DB:       cfg.GetInt(config.KeyRedisDB),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis: %s unreachable, using in-process cache: %v", addr, err)
		client.Close()
		return nil
	}
	return client
}
