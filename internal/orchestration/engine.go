package orchestration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/empowerher/empowerhub/internal/domain/rules"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/pkg/metrics"
)

// Engine evaluates the rule table against an emitted event and the user's
// current state, dispatching actions for every rule whose condition holds.
//
// The engine holds no mutable state and is safe for concurrent use. Fault
// isolation is a hard requirement: a condition or action that errors or
// panics is caught and logged per rule, and remaining rules still run.
type Engine struct {
	rules    *rules.Set
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Manager
}

// NewEngine creates an Engine over an immutable rule set and registry.
func NewEngine(set *rules.Set, registry *Registry, logger *slog.Logger, m *metrics.Manager) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:    set,
		registry: registry,
		logger:   logger.With("component", "rule_engine"),
		metrics:  m,
	}
}

// Evaluate runs every rule bound to the event's type, in declaration
// order. For each rule whose condition holds, the rule's actions execute
// in listed order.
func (e *Engine) Evaluate(ctx context.Context, event *shared.Event, u *user.User) {
	for _, rule := range e.rules.ForTrigger(event.Type) {
		e.evaluateRule(ctx, rule, event, u)
	}
}

// evaluateRule processes one rule with panic containment so a faulty rule
// never suppresses its siblings.
func (e *Engine) evaluateRule(ctx context.Context, rule rules.Rule, event *shared.Event, u *user.User) {
	defer func() {
		if rec := recover(); rec != nil {
			if e.metrics != nil {
				e.metrics.RecordRuleFailure()
			}
			e.logger.Error("rule evaluation panicked",
				"rule", rule.Name,
				"event_type", event.Type.String(),
				"user_id", u.ID,
				"panic", fmt.Sprintf("%v", rec),
			)
		}
	}()

	if e.metrics != nil {
		e.metrics.RecordRuleEvaluated()
	}

	fired, err := rule.Condition.Evaluate(u, event.Payload)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordRuleFailure()
		}
		e.logger.Error("rule condition failed",
			"rule", rule.Name,
			"event_type", event.Type.String(),
			"user_id", u.ID,
			"error", err,
		)
		return
	}
	if !fired {
		e.logger.Debug("rule condition not met",
			"rule", rule.Name,
			"event_type", event.Type.String(),
			"user_id", u.ID,
		)
		return
	}

	if e.metrics != nil {
		e.metrics.RecordRuleFired()
	}
	e.logger.Info("rule fired",
		"rule", rule.Name,
		"event_type", event.Type.String(),
		"user_id", u.ID,
		"actions", len(rule.Actions),
	)

	for _, name := range rule.Actions {
		e.registry.Execute(ctx, name, u, event)
	}
}
