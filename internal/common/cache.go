package common

import (
	"os"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheInterface is the contract shared by the in-memory and Redis caches.
// The policy service and status reads only ever talk to this.
type CacheInterface interface {
	Set(key string, value interface{}, duration time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)
	Close() error
}

// CacheService is the in-memory cache implementation, used by default and in
// single-instance deployments.
type CacheService struct {
	cache *cache.Cache
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	cs.Set(key, val, duration)
	return val, nil
}

// Close is a no-op for the in-memory cache.
func (cs *CacheService) Close() error {
	return nil
}

// NewCacheFromEnv selects the cache backend: Redis when CACHE_BACKEND=redis
// (multi-instance deployments share one policy cache that way), in-memory
// otherwise. Falls back to in-memory when Redis is unreachable.
func NewCacheFromEnv() CacheInterface {
	if os.Getenv("CACHE_BACKEND") == "redis" {
		if redisCache, err := NewRedisCacheService(); err == nil {
			return redisCache
		}
	}
	return NewCacheService(10*time.Minute, 15*time.Minute)
}
