package utility

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type cacheItem struct {
	value      string
	expiration time.Time
	hasExpiry  bool
}

func (item *cacheItem) isExpired() bool {
	if !item.hasExpiry {
		return false
	}
	return time.Now().After(item.expiration)
}

// memoryCacheService is the fallback used when Redis is not configured.
type memoryCacheService struct {
	data   sync.Map
	ticker *time.Ticker
	done   chan bool
}

// NewMemoryCacheService creates the in-memory cache and starts its
// expiry sweeper.
func NewMemoryCacheService() CacheService {
	svc := &memoryCacheService{
		ticker: time.NewTicker(1 * time.Minute),
		done:   make(chan bool),
	}
	go svc.cleanupExpired()
	return svc
}

func (s *memoryCacheService) cleanupExpired() {
	for {
		select {
		case <-s.ticker.C:
			s.data.Range(func(key, value interface{}) bool {
				if item, ok := value.(*cacheItem); ok && item.isExpired() {
					s.data.Delete(key)
				}
				return true
			})
		case <-s.done:
			return
		}
	}
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	item := &cacheItem{
		value:     fmt.Sprintf("%v", value),
		hasExpiry: expiration > 0,
	}
	if expiration > 0 {
		item.expiration = time.Now().Add(expiration)
	}
	s.data.Store(key, item)
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data.Load(key)
	if !ok {
		return "", nil
	}
	item, ok := value.(*cacheItem)
	if !ok {
		return "", nil
	}
	if item.isExpired() {
		s.data.Delete(key)
		return "", nil
	}
	return item.value, nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.data.Delete(key)
	}
	return nil
}
