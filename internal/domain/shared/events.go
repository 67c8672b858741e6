package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the empowerment orchestration.
// The set is open: emitters may introduce new types without touching the
// engine, as long as a rule binds them to actions.
const (
	// Progress events
	EventSkillCompleted EventType = "skill_completed"

	// Livelihood events
	EventOpportunitySaved EventType = "opportunity_saved"

	// Safety events
	EventSafetyModuleCompleted EventType = "safety_module_completed"
)

// IsValid reports whether the event type is non-empty.
// Unknown-but-named types are allowed; only the empty string is rejected.
func (t EventType) IsValid() bool {
	return len(t) > 0
}

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// ImpactDomain tags an event with the life area it affects, for
// cross-domain analytics.
type ImpactDomain string

const (
	ImpactSkill      ImpactDomain = "skill"
	ImpactLivelihood ImpactDomain = "livelihood"
	ImpactSafety     ImpactDomain = "safety"
)

// IsValid checks that the impact domain is one of the known values.
func (d ImpactDomain) IsValid() bool {
	switch d {
	case ImpactSkill, ImpactLivelihood, ImpactSafety:
		return true
	default:
		return false
	}
}

// Payload carries arbitrary structured event data. Shapes vary by emitter;
// conventional keys ("skill", "opportunity_id", "module_id") are documented
// on the commands that emit them.
type Payload map[string]any

// Event is an immutable record that something happened to a user.
// Once persisted it is never mutated or deleted.
//
// The explainability fields (CauseEventID, ImpactDomain, ConfidenceScore)
// are optional metadata for event-chain analytics. They are attached only
// when the emitter supplies them; absent fields are omitted from storage,
// never written as null placeholders.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      EventType `json:"type"`
	Payload   Payload   `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// CauseEventID references a prior event whose occurrence caused this
	// one. It is a reference, not ownership.
	CauseEventID *string `json:"cause_event_id,omitempty"`

	// ImpactDomain tags the life area this event affects.
	ImpactDomain *ImpactDomain `json:"impact_domain,omitempty"`

	// ConfidenceScore is the emitter's confidence in the causal link,
	// in [0, 1].
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// NewEvent creates a new event record with a generated ID and current
// timestamp.
func NewEvent(eventType EventType, userID string, payload Payload) *Event {
	return &Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// HasExplainability reports whether any explainability metadata is attached.
func (e *Event) HasExplainability() bool {
	return e.CauseEventID != nil || e.ImpactDomain != nil || e.ConfidenceScore != nil
}

// EventLog is the append-only persistence sink for domain events.
// Implementations must treat records as immutable.
type EventLog interface {
	// Append persists one event. Implementations should not panic; the
	// orchestrator treats append errors as non-fatal.
	Append(ctx context.Context, event *Event) error
}
