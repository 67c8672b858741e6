// Package memory provides in-memory implementations of the user store,
// event log, and opportunity catalog for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER STORE
// ══════════════════════════════════════════════════════════════════════════════

// UserStore is a map-backed user.Store. Safe for concurrent use. Documents
// are copied on read and write so callers never alias stored state.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*user.User
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*user.User)}
}

// FindByUserID implements user.Store.
func (s *UserStore) FindByUserID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return copyUser(u), nil
}

// IncrementPoints implements user.Store.
func (s *UserStore) IncrementPoints(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	return u.AddPoints(delta)
}

// Save implements user.Store.
func (s *UserStore) Save(ctx context.Context, u *user.User) error {
	if u == nil || u.ID == "" {
		return shared.WrapError("user", "Save", shared.ErrInvalidID, "user ID is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
	return nil
}

func copyUser(u *user.User) *user.User {
	cp := *u
	cp.CompletedSkills = append([]user.SkillID(nil), u.CompletedSkills...)
	cp.SavedOpportunities = append([]string(nil), u.SavedOpportunities...)
	return &cp
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT LOG
// ══════════════════════════════════════════════════════════════════════════════

// EventLog is an append-only in-memory shared.EventLog. Safe for
// concurrent use.
type EventLog struct {
	mu     sync.RWMutex
	events []*shared.Event

	// FailWith, when set, makes every Append return this error. Used by
	// tests to exercise the swallowed-persistence-failure path.
	FailWith error
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append implements shared.EventLog.
func (l *EventLog) Append(ctx context.Context, event *shared.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailWith != nil {
		return l.FailWith
	}

	cp := *event
	l.events = append(l.events, &cp)
	return nil
}

// ListByUser returns the user's events in append order, capped at limit.
func (l *EventLog) ListByUser(ctx context.Context, userID string, limit int) ([]*shared.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	var out []*shared.Event
	for _, e := range l.events {
		if e.UserID != userID {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Events returns a snapshot of all appended events in append order.
func (l *EventLog) Events() []*shared.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*shared.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of appended events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// ══════════════════════════════════════════════════════════════════════════════
// OPPORTUNITY CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is a slice-backed opportunity.Catalog preserving catalog order.
type Catalog struct {
	mu            sync.RWMutex
	opportunities []opportunity.Opportunity
}

// NewCatalog creates a catalog from the given opportunities.
func NewCatalog(opportunities ...opportunity.Opportunity) *Catalog {
	return &Catalog{opportunities: opportunities}
}

// List implements opportunity.Catalog.
func (c *Catalog) List(ctx context.Context) ([]opportunity.Opportunity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]opportunity.Opportunity, len(c.opportunities))
	copy(out, c.opportunities)
	return out, nil
}

// GetByID implements opportunity.Catalog.
func (c *Catalog) GetByID(ctx context.Context, id string) (*opportunity.Opportunity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, opp := range c.opportunities {
		if opp.ID == id {
			cp := opp
			return &cp, nil
		}
	}
	return nil, shared.ErrOpportunityNotFound
}
