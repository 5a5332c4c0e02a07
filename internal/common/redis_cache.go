package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheInterface on Redis. Values are stored as
// JSON, so structured values come back as generic maps; callers that need
// typed values re-marshal (see the policy service).
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
}

var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService connects to Redis using REDIS_HOST/PORT/PASSWORD.
func NewRedisCacheService() (*RedisCacheService, error) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheService{client: client, ctx: ctx}, nil
}

func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[RedisCache] Failed to marshal value for key %s: %v", key, err)
		return
	}
	if err := r.client.Set(r.ctx, key, data, duration).Err(); err != nil {
		log.Printf("[RedisCache] Failed to set key %s: %v", key, err)
	}
}

func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	data, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[RedisCache] Failed to get key %s: %v", key, err)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		log.Printf("[RedisCache] Failed to unmarshal value for key %s: %v", key, err)
		return nil, false
	}
	return result, true
}

func (r *RedisCacheService) Delete(key string) {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		log.Printf("[RedisCache] Failed to delete key %s: %v", key, err)
	}
}

func (r *RedisCacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	r.Set(key, val, duration)
	return val, nil
}

func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
