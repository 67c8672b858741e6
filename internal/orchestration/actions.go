// Package orchestration implements the empowerment orchestrator: a
// rule-driven engine that reacts to domain events, evaluates declarative
// conditions against user state, and fires side-effecting actions.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/rules"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/pkg/metrics"
)

// DefaultSafetyAward is the fixed point award for completing a safety
// module.
const DefaultSafetyAward = 20

// Notifier delivers user-facing suggestions raised by actions. The
// delivery channel (push, in-app, log) is an infrastructure concern.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string) error
}

// Action is one named, possibly side-effecting operation invoked when a
// rule's condition holds. Implementations are idempotent by intent but the
// engine adds no dedup layer: re-emitting the same event repeats the side
// effects.
type Action interface {
	// Name is the identifier rules reference.
	Name() rules.ActionName

	// Execute performs the side effect for one user and triggering event.
	Execute(ctx context.Context, u *user.User, event *shared.Event) error
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Registry resolves action names to implementations. It is immutable after
// construction.
type Registry struct {
	actions map[rules.ActionName]Action
	logger  *slog.Logger
	metrics *metrics.Manager
}

// NewRegistry builds a registry from the given actions. Duplicate names
// are a programming error and rejected.
func NewRegistry(logger *slog.Logger, m *metrics.Manager, actions ...Action) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[rules.ActionName]Action, len(actions))
	for _, a := range actions {
		if _, dup := byName[a.Name()]; dup {
			return nil, shared.WrapError("orchestration", "NewRegistry", shared.ErrAlreadyExists,
				"duplicate action "+a.Name().String(), nil)
		}
		byName[a.Name()] = a
	}

	return &Registry{
		actions: byName,
		logger:  logger.With("component", "action_registry"),
		metrics: m,
	}, nil
}

// Execute runs one named action. An unregistered name is a configuration
// error: it is logged and skipped so sibling actions still run. Action
// failures are logged and reported to metrics but never propagate.
func (r *Registry) Execute(ctx context.Context, name rules.ActionName, u *user.User, event *shared.Event) {
	action, ok := r.actions[name]
	if !ok {
		r.logger.Error("action not registered, skipping",
			"action", name.String(),
			"event_type", event.Type.String(),
			"user_id", u.ID,
		)
		if r.metrics != nil {
			r.metrics.RecordActionExecution(name.String(), false)
		}
		return
	}

	err := r.execute(ctx, action, u, event)
	if r.metrics != nil {
		r.metrics.RecordActionExecution(name.String(), err == nil)
	}
	if err != nil {
		r.logger.Error("action failed",
			"action", name.String(),
			"event_type", event.Type.String(),
			"user_id", u.ID,
			"error", err,
		)
	}
}

// execute runs the action with panic containment.
func (r *Registry) execute(ctx context.Context, action Action, u *user.User, event *shared.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("action panic: %v", rec)
		}
	}()
	return action.Execute(ctx, u, event)
}

// Has reports whether the name is registered.
func (r *Registry) Has(name rules.ActionName) bool {
	_, ok := r.actions[name]
	return ok
}

// DefaultRegistry wires the built-in action set.
func DefaultRegistry(
	store user.Store,
	catalog opportunity.Catalog,
	notifier Notifier,
	logger *slog.Logger,
	m *metrics.Manager,
) (*Registry, error) {
	return NewRegistry(logger, m,
		NewTriggerOpportunityMatching(catalog, logger),
		NewSuggestSafetyLesson(notifier, logger),
		NewAwardSafetyPoints(store, DefaultSafetyAward, logger),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// TriggerOpportunityMatching kicks off downstream opportunity matching for
// a user whose skill set has grown. The base form mutates no state: it runs
// the matcher against the catalog and logs the outcome so downstream
// consumers (digest jobs, notification fan-out) can pick it up.
type TriggerOpportunityMatching struct {
	catalog opportunity.Catalog
	matcher *opportunity.Matcher
	logger  *slog.Logger
}

// NewTriggerOpportunityMatching creates the action. catalog may be nil, in
// which case the action only logs the trigger.
func NewTriggerOpportunityMatching(catalog opportunity.Catalog, logger *slog.Logger) *TriggerOpportunityMatching {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriggerOpportunityMatching{
		catalog: catalog,
		matcher: opportunity.NewMatcher(),
		logger:  logger.With("action", rules.ActionTriggerOpportunityMatching.String()),
	}
}

// Name implements Action.
func (a *TriggerOpportunityMatching) Name() rules.ActionName {
	return rules.ActionTriggerOpportunityMatching
}

// Execute implements Action.
func (a *TriggerOpportunityMatching) Execute(ctx context.Context, u *user.User, event *shared.Event) error {
	if a.catalog == nil {
		a.logger.Info("opportunity matching triggered",
			"user_id", u.ID,
			"completed_skills", len(u.CompletedSkills),
		)
		return nil
	}

	opportunities, err := a.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list opportunities: %w", err)
	}

	matches := a.matcher.Match(u.SkillNames(), opportunities)
	a.logger.Info("opportunity matching triggered",
		"user_id", u.ID,
		"completed_skills", len(u.CompletedSkills),
		"catalog_size", len(opportunities),
		"matches", len(matches),
	)
	return nil
}

// SuggestSafetyLesson sends a notification nudging the user toward the
// safety curriculum after her first saved opportunity. Notification only;
// no state mutation.
type SuggestSafetyLesson struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewSuggestSafetyLesson creates the action. notifier may be nil, in which
// case the suggestion is only logged.
func NewSuggestSafetyLesson(notifier Notifier, logger *slog.Logger) *SuggestSafetyLesson {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestSafetyLesson{
		notifier: notifier,
		logger:   logger.With("action", rules.ActionSuggestSafetyLesson.String()),
	}
}

// Name implements Action.
func (a *SuggestSafetyLesson) Name() rules.ActionName {
	return rules.ActionSuggestSafetyLesson
}

// Execute implements Action.
func (a *SuggestSafetyLesson) Execute(ctx context.Context, u *user.User, event *shared.Event) error {
	const message = "You saved your first opportunity. A quick workplace-safety lesson can help you prepare."

	a.logger.Info("suggesting safety lesson", "user_id", u.ID)

	if a.notifier == nil {
		return nil
	}
	if err := a.notifier.Notify(ctx, u.ID, "safety_lesson_suggestion", message); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// AwardSafetyPoints atomically increments the user's point total by a
// fixed amount. Each execution adds again; there is no dedup.
type AwardSafetyPoints struct {
	store  user.Store
	award  int
	logger *slog.Logger
}

// NewAwardSafetyPoints creates the action with the given award amount.
func NewAwardSafetyPoints(store user.Store, award int, logger *slog.Logger) *AwardSafetyPoints {
	if logger == nil {
		logger = slog.Default()
	}
	if award <= 0 {
		award = DefaultSafetyAward
	}
	return &AwardSafetyPoints{
		store:  store,
		award:  award,
		logger: logger.With("action", rules.ActionAwardSafetyPoints.String()),
	}
}

// Name implements Action.
func (a *AwardSafetyPoints) Name() rules.ActionName {
	return rules.ActionAwardSafetyPoints
}

// Execute implements Action.
func (a *AwardSafetyPoints) Execute(ctx context.Context, u *user.User, event *shared.Event) error {
	if err := a.store.IncrementPoints(ctx, u.ID, a.award); err != nil {
		return fmt.Errorf("increment points: %w", err)
	}

	a.logger.Info("safety points awarded",
		"user_id", u.ID,
		"award", a.award,
	)
	return nil
}
