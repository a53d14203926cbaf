package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// defaultBindingTTL bounds how long a cached binding may lag behind the
// database. Bindings are append-mostly; a stale positive entry resolves to
// the same internal record.
const defaultBindingTTL = 15 * time.Minute

// RedisBindingCache is a read-through cache over a binding repository.
// Dependency resolution looks the same few bindings up for every order line,
// so external lookups are served from Redis when possible. Cache failures
// degrade to the underlying repository.
type RedisBindingCache struct {
	repo      connector.BindingRepository
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// RedisBindingCacheOption is a functional option for configuring the cache
type RedisBindingCacheOption func(*RedisBindingCache)

// WithBindingTTL sets the cache entry lifetime
func WithBindingTTL(ttl time.Duration) RedisBindingCacheOption {
	return func(c *RedisBindingCache) {
		c.ttl = ttl
	}
}

// WithBindingLogger sets the logger for the cache
func WithBindingLogger(logger *zap.Logger) RedisBindingCacheOption {
	return func(c *RedisBindingCache) {
		c.logger = logger
	}
}

// NewRedisBindingCache wraps a binding repository with a Redis cache.
func NewRedisBindingCache(repo connector.BindingRepository, client *redis.Client, opts ...RedisBindingCacheOption) *RedisBindingCache {
	c := &RedisBindingCache{
		repo:      repo,
		client:    client,
		ttl:       defaultBindingTTL,
		keyPrefix: "connector:binding:",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisBindingCache) externalKey(backendID uuid.UUID, model connector.Model, externalID string) string {
	return fmt.Sprintf("%s%s:%s:%s", c.keyPrefix, backendID, model, externalID)
}

// FindByID delegates to the repository; lookups by binding ID are an
// administrative path, not worth caching.
func (c *RedisBindingCache) FindByID(ctx context.Context, id uuid.UUID) (*connector.Binding, error) {
	return c.repo.FindByID(ctx, id)
}

// FindByExternal serves the binding from Redis when cached, falling back to
// the repository. Only positive hits are cached; a missing binding is about
// to be created by the import that asked.
func (c *RedisBindingCache) FindByExternal(ctx context.Context, backendID uuid.UUID, model connector.Model, externalID string) (*connector.Binding, error) {
	key := c.externalKey(backendID, model, externalID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var binding connector.Binding
		if err := json.Unmarshal(payload, &binding); err == nil {
			return &binding, nil
		}
		// unreadable entry, drop it and fall through
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("binding cache read failed", zap.String("key", key), zap.Error(err))
	}

	binding, err := c.repo.FindByExternal(ctx, backendID, model, externalID)
	if err != nil || binding == nil {
		return binding, err
	}
	c.store(ctx, key, binding)
	return binding, nil
}

// FindByInternal delegates to the repository; it exists to surface
// uniqueness violations and must see the stored truth.
func (c *RedisBindingCache) FindByInternal(ctx context.Context, backendID uuid.UUID, model connector.Model, internalID uuid.UUID) ([]connector.Binding, error) {
	return c.repo.FindByInternal(ctx, backendID, model, internalID)
}

// Upsert writes through to the repository and refreshes the cached entry.
func (c *RedisBindingCache) Upsert(ctx context.Context, binding *connector.Binding) error {
	if err := c.repo.Upsert(ctx, binding); err != nil {
		return err
	}
	c.store(ctx, c.externalKey(binding.BackendID, binding.Model, binding.ExternalID), binding)
	return nil
}

// Delete removes the binding and its cached entry.
func (c *RedisBindingCache) Delete(ctx context.Context, id uuid.UUID) error {
	binding, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.externalKey(binding.BackendID, binding.Model, binding.ExternalID)).Err(); err != nil {
		c.logger.Warn("binding cache invalidation failed", zap.Error(err))
	}
	return nil
}

func (c *RedisBindingCache) store(ctx context.Context, key string, binding *connector.Binding) {
	payload, err := json.Marshal(binding)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("binding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ connector.BindingRepository = (*RedisBindingCache)(nil)
