// internal/service/cache.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/cache"
	"github.com/dangerclosesec/agiletrack/internal/domain"
)

// CacheService provides JSON-typed caching over a cache.Store
type CacheService struct {
	store cache.Store
	ttl   time.Duration
}

// CacheConfig holds configuration for the cache service
type CacheConfig struct {
	TTL         time.Duration
	CleanupFreq time.Duration

	// RedisAddr switches the backend from in-process memory to redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewCacheService creates a new cache service
func NewCacheService(ctx context.Context, config CacheConfig) (*CacheService, error) {
	if config.RedisAddr != "" {
		store, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			TTL:      config.TTL,
			Prefix:   "agiletrack:",
		})
		if err != nil {
			return nil, err
		}
		slog.Info("cache backend selected", "backend", "redis", "addr", config.RedisAddr)
		return &CacheService{store: store, ttl: config.TTL}, nil
	}

	mem := cache.NewInMemoryCache(config.TTL, config.CleanupFreq)

	// Start the cleanup routine
	mem.StartCleanup(context.Background())

	return &CacheService{store: mem, ttl: config.TTL}, nil
}

// NewCacheServiceWithStore wraps an existing store.
func NewCacheServiceWithStore(store cache.Store, ttl time.Duration) *CacheService {
	return &CacheService{store: store, ttl: ttl}
}

// Set stores a value in the cache as JSON
func (s *CacheService) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}
	return s.store.Set(ctx, key, data, s.ttl)
}

// Get decodes the cached value for key into result. A miss is ErrNotFound.
func (s *CacheService) Get(ctx context.Context, key string, result any) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	data, found, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}
	if !found {
		return domain.ErrNotFound
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshaling cached value: %w", err)
	}
	return nil
}

// GetOrSet retrieves a value from cache or fills it with fetch. Cache read
// and write failures are logged and fall through to fetch.
func (s *CacheService) GetOrSet(ctx context.Context, key string, result any, fetch func() (any, error)) error {
	err := s.Get(ctx, key, result)
	if err == nil {
		return nil
	}
	if err != domain.ErrNotFound {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling fetched value: %w", err)
	}
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("assigning fetched value: %w", err)
	}
	return nil
}

// Delete removes values from the cache. Failures are logged only.
func (s *CacheService) Delete(ctx context.Context, keys ...string) {
	if err := s.store.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache delete failed", "keys", keys, "error", err)
	}
}

// Close stops the cleanup routine or closes the redis client
func (s *CacheService) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("closing cache", "error", err)
	}
}
