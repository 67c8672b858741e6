// Package redis implements Redis-backed caching for user documents.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/empowerher/empowerhub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis address in "host:port" format.
	Addr string

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number.
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ErrCacheMiss is returned when the requested key is not in the cache.
var ErrCacheMiss = errors.New("cache: key not found")

// Key prefix for user documents.
const prefixUser = "user:"

// DefaultUserTTL is how long user documents stay cached.
const DefaultUserTTL = 5 * time.Minute

// UserCache implements user.Cache on Redis, storing documents as JSON.
type UserCache struct {
	client *redis.Client
}

// NewUserCache creates a new UserCache.
func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

// Get fetches a user from the cache.
func (c *UserCache) Get(ctx context.Context, id string) (*user.User, error) {
	data, err := c.client.Get(ctx, prefixUser+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("cache unmarshal: %w", err)
	}
	return &u, nil
}

// Set stores a user in the cache.
func (c *UserCache) Set(ctx context.Context, u *user.User, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, prefixUser+u.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for the user.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, prefixUser+id).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHED STORE DECORATOR
// ══════════════════════════════════════════════════════════════════════════════

// CachedUserStore decorates a user.Store with read-through caching.
// Writes invalidate rather than update, so a concurrent reader never sees
// a cache entry newer than the store.
type CachedUserStore struct {
	inner user.Store
	cache user.Cache
	ttl   time.Duration
}

// NewCachedUserStore wraps inner with the cache.
func NewCachedUserStore(inner user.Store, cache user.Cache, ttl time.Duration) *CachedUserStore {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &CachedUserStore{inner: inner, cache: cache, ttl: ttl}
}

// FindByUserID implements user.Store with read-through caching. Cache
// failures fall back to the inner store; they never fail the read.
func (s *CachedUserStore) FindByUserID(ctx context.Context, id string) (*user.User, error) {
	if u, err := s.cache.Get(ctx, id); err == nil {
		return u, nil
	}

	u, err := s.inner.FindByUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, u, s.ttl)
	return u, nil
}

// IncrementPoints implements user.Store, invalidating the cached document.
func (s *CachedUserStore) IncrementPoints(ctx context.Context, id string, delta int) error {
	if err := s.inner.IncrementPoints(ctx, id, delta); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, id)
	return nil
}

// Save implements user.Store, invalidating the cached document.
func (s *CachedUserStore) Save(ctx context.Context, u *user.User) error {
	if err := s.inner.Save(ctx, u); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, u.ID)
	return nil
}
