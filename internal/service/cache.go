package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dangerclosesec/studygroups/internal/cache"
	"github.com/dangerclosesec/studygroups/internal/domain"
)

// CacheService provides typed access to the expiring key-value store
type CacheService struct {
	cache *cache.InMemoryCache
}

// CacheConfig holds configuration for the cache service
type CacheConfig struct {
	TTL         time.Duration
	CleanupFreq time.Duration
}

// NewCacheService creates a cache service and starts its cleanup routine
func NewCacheService(config CacheConfig) *CacheService {
	c := cache.NewInMemoryCache(config.TTL, config.CleanupFreq)
	c.StartCleanup(context.Background())

	return &CacheService{
		cache: c,
	}
}

// Set stores a value under key with the default TTL
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	s.cache.Set(ctx, key, value)
	return nil
}

// Get copies the value stored under key into result
func (s *CacheService) Get(ctx context.Context, key string, result interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	value, found := s.cache.Get(ctx, key)
	if !found {
		return domain.ErrNotFound
	}

	return assignValue(value, result)
}

// Consume copies the value stored under key into result and removes it, so each
// value is handed out at most once
func (s *CacheService) Consume(ctx context.Context, key string, result interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	value, found := s.cache.Take(ctx, key)
	if !found {
		return domain.ErrNotFound
	}

	return assignValue(value, result)
}

// Delete removes a value from the cache
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	s.cache.Delete(ctx, key)
	return nil
}

// Close stops the cleanup routine
func (s *CacheService) Close() {
	s.cache.StopCleanup()
}

// assignValue copies src into the pointer dst
func assignValue(src interface{}, dst interface{}) error {
	switch d := dst.(type) {
	case nil:
		return nil
	case *interface{}:
		*d = src
		return nil
	case *string:
		if s, ok := src.(string); ok {
			*d = s
			return nil
		}
	}

	// Round-trip through JSON for everything else
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshaling cached value: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshaling cached value: %w", err)
	}

	return nil
}
