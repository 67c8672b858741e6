// Package rules contains the declarative rule model for the empowerment
// orchestrator. Rules are static configuration: loaded at process start,
// never mutated at runtime. Adding or removing a rule must never require
// touching evaluation logic.
package rules

import (
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
)

// ActionName identifies a registered side-effecting action.
type ActionName string

// Built-in action names. The registry in the orchestration package maps
// each to its implementation; a rule referencing an unregistered name is a
// configuration error that is logged and skipped at dispatch time.
const (
	ActionTriggerOpportunityMatching ActionName = "triggerOpportunityMatching"
	ActionSuggestSafetyLesson        ActionName = "suggestSafetyLesson"
	ActionAwardSafetyPoints          ActionName = "awardSafetyPoints"
)

// IsValid checks that the action name is non-empty.
func (n ActionName) IsValid() bool {
	return len(n) > 0
}

// String returns the string representation of the action name.
func (n ActionName) String() string {
	return string(n)
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC
// ══════════════════════════════════════════════════════════════════════════════

// Metric names a numeric property of the user's progress state that
// declarative conditions can compare against.
type Metric string

const (
	// MetricCompletedSkills is the number of completed skills.
	MetricCompletedSkills Metric = "completed_skills"

	// MetricSavedOpportunities is the number of saved opportunities.
	MetricSavedOpportunities Metric = "saved_opportunities"

	// MetricCompletedSafetyLessons is the number of completed safety lessons.
	MetricCompletedSafetyLessons Metric = "completed_safety_lessons"

	// MetricPoints is the user's point total.
	MetricPoints Metric = "points"
)

// IsValid checks the metric is one of the known values.
func (m Metric) IsValid() bool {
	switch m {
	case MetricCompletedSkills, MetricSavedOpportunities, MetricCompletedSafetyLessons, MetricPoints:
		return true
	default:
		return false
	}
}

// valueOf reads the metric from a user's progress state.
func (m Metric) valueOf(u *user.User) (int, error) {
	switch m {
	case MetricCompletedSkills:
		return len(u.CompletedSkills), nil
	case MetricSavedOpportunities:
		return len(u.SavedOpportunities), nil
	case MetricCompletedSafetyLessons:
		return u.CompletedSafetyLessons, nil
	case MetricPoints:
		return int(u.Points), nil
	default:
		return 0, shared.WrapError("rules", "Evaluate", shared.ErrConfiguration, "unknown metric "+string(m), nil)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPARISON OPERATOR
// ══════════════════════════════════════════════════════════════════════════════

// Operator is a comparison operator for declarative conditions.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "neq"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
)

// IsValid checks the operator is one of the known values.
func (op Operator) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return true
	default:
		return false
	}
}

// Compare evaluates the operator against two integers.
func (op Operator) Compare(actual, expected int) bool {
	switch op {
	case OpEqual:
		return actual == expected
	case OpNotEqual:
		return actual != expected
	case OpGreaterThan:
		return actual > expected
	case OpGreaterOrEqual:
		return actual >= expected
	case OpLessThan:
		return actual < expected
	case OpLessOrEqual:
		return actual <= expected
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONDITION
// ══════════════════════════════════════════════════════════════════════════════

// Predicate is a custom pure condition over user state and event payload.
// It must not mutate its arguments or cause observable effects.
type Predicate func(u *user.User, payload shared.Payload) bool

// Condition decides whether a triggered rule's actions fire.
//
// Exactly one form applies, checked in order: Always, Predicate, then the
// declarative Metric/Operator/Value comparison. The built-in rule set only
// uses Always and metric comparisons; Predicate is the escape hatch for
// conditions the declarative form cannot express.
type Condition struct {
	Always    bool
	Predicate Predicate
	Metric    Metric
	Operator  Operator
	Value     int
}

// AlwaysTrue returns a condition that holds for every event.
func AlwaysTrue() Condition {
	return Condition{Always: true}
}

// MetricCondition returns a declarative metric comparison condition.
func MetricCondition(metric Metric, op Operator, value int) Condition {
	return Condition{Metric: metric, Operator: op, Value: value}
}

// PredicateCondition wraps a custom predicate.
func PredicateCondition(p Predicate) Condition {
	return Condition{Predicate: p}
}

// Evaluate applies the condition to the user's current state and the event
// payload. It is a pure read; user and payload are only inspected.
func (c Condition) Evaluate(u *user.User, payload shared.Payload) (bool, error) {
	if c.Always {
		return true, nil
	}
	if c.Predicate != nil {
		return c.Predicate(u, payload), nil
	}
	if !c.Metric.IsValid() {
		return false, shared.WrapError("rules", "Evaluate", shared.ErrConfiguration, "condition has no metric and no predicate", nil)
	}
	if !c.Operator.IsValid() {
		return false, shared.WrapError("rules", "Evaluate", shared.ErrConfiguration, "invalid operator "+string(c.Operator), nil)
	}

	actual, err := c.Metric.valueOf(u)
	if err != nil {
		return false, err
	}
	return c.Operator.Compare(actual, c.Value), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE
// ══════════════════════════════════════════════════════════════════════════════

// Rule binds a trigger event type to a condition and an ordered action list.
// Multiple rules may share a trigger; evaluation follows declaration order
// and actions execute in listed order.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Trigger is the event type the rule reacts to.
	Trigger shared.EventType

	// Condition gates the actions.
	Condition Condition

	// Actions are executed in order when the condition holds.
	Actions []ActionName
}

// Validate checks the rule is structurally sound.
func (r Rule) Validate() error {
	if r.Name == "" {
		return shared.WrapError("rules", "Validate", shared.ErrEmptyValue, "rule name is required", nil)
	}
	if !r.Trigger.IsValid() {
		return shared.WrapError("rules", "Validate", shared.ErrInvalidInput, "rule "+r.Name+" has no trigger", nil)
	}
	if len(r.Actions) == 0 {
		return shared.WrapError("rules", "Validate", shared.ErrEmptyValue, "rule "+r.Name+" has no actions", nil)
	}
	for _, a := range r.Actions {
		if !a.IsValid() {
			return shared.WrapError("rules", "Validate", shared.ErrEmptyValue, "rule "+r.Name+" has an empty action name", nil)
		}
	}
	return nil
}

// Set is an ordered, immutable-after-construction rule table.
type Set struct {
	rules []Rule
}

// NewSet validates and freezes a rule table.
func NewSet(rules ...Rule) (*Set, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	frozen := make([]Rule, len(rules))
	copy(frozen, rules)
	return &Set{rules: frozen}, nil
}

// ForTrigger returns the rules bound to the event type, in declaration
// order.
func (s *Set) ForTrigger(eventType shared.EventType) []Rule {
	matched := make([]Rule, 0, 2)
	for _, r := range s.rules {
		if r.Trigger == eventType {
			matched = append(matched, r)
		}
	}
	return matched
}

// All returns every rule in declaration order.
func (s *Set) All() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules in the set.
func (s *Set) Len() int {
	return len(s.rules)
}

// Default returns the built-in empowerment rule set:
//
//   - skill_completed: three or more completed skills triggers opportunity
//     matching.
//   - opportunity_saved: exactly the first save suggests a safety lesson.
//   - safety_module_completed: always awards safety points.
func Default() *Set {
	set, err := NewSet(
		Rule{
			Name:      "skills-ready-for-opportunities",
			Trigger:   shared.EventSkillCompleted,
			Condition: MetricCondition(MetricCompletedSkills, OpGreaterOrEqual, 3),
			Actions:   []ActionName{ActionTriggerOpportunityMatching},
		},
		Rule{
			Name:      "first-opportunity-saved",
			Trigger:   shared.EventOpportunitySaved,
			Condition: MetricCondition(MetricSavedOpportunities, OpEqual, 1),
			Actions:   []ActionName{ActionSuggestSafetyLesson},
		},
		Rule{
			Name:      "safety-module-reward",
			Trigger:   shared.EventSafetyModuleCompleted,
			Condition: AlwaysTrue(),
			Actions:   []ActionName{ActionAwardSafetyPoints},
		},
	)
	if err != nil {
		// The built-in table is static; a validation failure here is a
		// programming error.
		panic(err)
	}
	return set
}
