package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "formatter:classify:"

// Store is a string key/value store with expiry
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore implements Store on a Redis client
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis backed store
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the value for key, reporting whether it was found
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

// Set stores value under key for ttl
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Cached reuses answers for identical (model, category, text) requests.
// Store failures are logged and the wrapped classifier is used instead.
type Cached struct {
	next   Classifier
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next with a cache
func NewCached(next Classifier, store Store, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Model returns the wrapped classifier's model
func (c *Cached) Model() string {
	return c.next.Model()
}

// Classify returns a cached answer or asks the wrapped classifier
func (c *Cached) Classify(ctx context.Context, cat *category.Category, text string) (*Result, error) {
	key := CacheKey(c.next.Model(), cat.Name, text)

	raw, found, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("classification cache unavailable", zap.Error(err))
	case found:
		result, err := newResult(raw)
		if err == nil {
			result.Cached = true
			return result, nil
		}
		c.logger.Warn("discarding malformed cache entry",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	result, err := c.next.Classify(ctx, cat, text)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, string(result.Raw), c.ttl); err != nil {
		c.logger.Warn("failed to cache classification", zap.Error(err))
	}

	return result, nil
}

// CacheKey derives the store key for a request
func CacheKey(model, categoryName, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(categoryName))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
