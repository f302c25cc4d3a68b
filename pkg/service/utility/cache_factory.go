package utility

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// NewCacheServiceWithFallback returns a Redis-backed cache when the client
// is usable and degrades to the in-memory cache otherwise.
func NewCacheServiceWithFallback(redisClient *redis.Client) CacheService {
	if redisClient == nil {
		log.Println("cache: using in-memory cache")
		return NewMemoryCacheService()
	}

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("cache: redis unavailable (%v), falling back to in-memory cache", err)
		return NewMemoryCacheService()
	}

	log.Println("cache: using redis")
	return NewCacheService(redisClient)
}
