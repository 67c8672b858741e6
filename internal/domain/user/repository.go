package user

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for the user document store.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store defines the operations the orchestration core needs from the user
// document store: point-read-by-key, atomic field increment, and full
// document upsert.
type Store interface {
	// FindByUserID returns the user with the given ID.
	// Returns shared.ErrUserNotFound if the user does not exist.
	FindByUserID(ctx context.Context, id string) (*User, error)

	// IncrementPoints atomically adds delta points to the user's total.
	// Returns shared.ErrUserNotFound if the user does not exist.
	IncrementPoints(ctx context.Context, id string, delta int) error

	// Save upserts the full user document.
	Save(ctx context.Context, u *User) error
}

// Cache defines read-through caching of user documents.
// Usually implemented on Redis; a cache miss is signalled by the
// implementation's own miss error, not by shared.ErrUserNotFound.
type Cache interface {
	// Get fetches a user from the cache.
	Get(ctx context.Context, id string) (*User, error)

	// Set stores a user in the cache with the given TTL.
	Set(ctx context.Context, u *User, ttl time.Duration) error

	// Invalidate drops all cached entries for the user.
	Invalidate(ctx context.Context, id string) error
}
