package orchestration

import (
	"context"
	"log/slog"
	"sync"

	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/pkg/metrics"
	"github.com/empowerher/empowerhub/pkg/retry"
)

// EmitOption attaches optional explainability metadata to an emitted
// event. Metadata is stored only when explicitly supplied; absent fields
// stay absent, never null placeholders.
type EmitOption func(*shared.Event)

// WithCause links the emitted event to a prior event that caused it.
func WithCause(causeEventID string) EmitOption {
	return func(e *shared.Event) {
		if causeEventID != "" {
			e.CauseEventID = &causeEventID
		}
	}
}

// WithImpactDomain tags the event with the life area it affects.
// Unknown domains are dropped rather than stored.
func WithImpactDomain(d shared.ImpactDomain) EmitOption {
	return func(e *shared.Event) {
		if d.IsValid() {
			e.ImpactDomain = &d
		}
	}
}

// WithConfidence records the emitter's confidence in the causal link.
// Values outside [0, 1] are dropped rather than stored.
func WithConfidence(score float64) EmitOption {
	return func(e *shared.Event) {
		if score >= 0 && score <= 1 {
			e.ConfidenceScore = &score
		}
	}
}

// Config assembles an Orchestrator. Rules and actions are wired once at
// process start; the resulting Orchestrator is immutable and injected into
// every call site.
type Config struct {
	EventLog shared.EventLog
	Users    user.Store
	Engine   *Engine
	Logger   *slog.Logger
	Metrics  *metrics.Manager

	// AppendRetry bounds retries of the event log append before the
	// failure is swallowed. Zero value means a single attempt.
	AppendRetry retry.Config

	// Workers sizes the pool for EmitAsync. Defaults to 4.
	Workers int
}

// Orchestrator is the façade the rest of the application uses to emit
// domain events. It persists the event, loads the user, and runs the rule
// engine — in that order within one Emit call.
//
// Concurrent Emit calls for the same user are not serialized: two
// concurrent events can read stale user state and both satisfy a
// threshold condition. This weak-consistency model is accepted; callers
// needing exactly-once action semantics must add per-user serialization
// themselves.
type Orchestrator struct {
	log     shared.EventLog
	users   user.Store
	engine  *Engine
	logger  *slog.Logger
	metrics *metrics.Manager

	appendRetry retry.Config

	pool chan struct{}
	wg   sync.WaitGroup
}

// New creates an Orchestrator from config.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	appendRetry := cfg.AppendRetry
	if appendRetry.MaxAttempts <= 0 {
		appendRetry.MaxAttempts = 1
	}

	return &Orchestrator{
		log:         cfg.EventLog,
		users:       cfg.Users,
		engine:      cfg.Engine,
		logger:      logger.With("component", "orchestrator"),
		metrics:     cfg.Metrics,
		appendRetry: appendRetry,
		pool:        make(chan struct{}, workers),
	}
}

// Emit records a domain event and runs the rules bound to its type.
//
// Emission is best-effort relative to the caller's primary operation:
// persistence failures are logged and swallowed, a missing user silently
// skips rule evaluation, and faulted rules are isolated. Emit never
// returns an error; it returns the event record so callers can chain
// causality (WithCause) on follow-on events.
func (o *Orchestrator) Emit(ctx context.Context, eventType shared.EventType, userID string, payload shared.Payload, opts ...EmitOption) *shared.Event {
	if !eventType.IsValid() || userID == "" {
		o.logger.Warn("dropping invalid emit",
			"event_type", eventType.String(),
			"user_id", userID,
		)
		return nil
	}

	event := shared.NewEvent(eventType, userID, payload)
	for _, opt := range opts {
		opt(event)
	}

	if o.metrics != nil {
		o.metrics.RecordEventEmitted(eventType.String())
	}

	// Persist first, independent of rule outcomes. The event record must
	// exist before any action that reads it for causality linking.
	o.append(ctx, event)

	u, err := o.users.FindByUserID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			o.logger.Debug("user not found, skipping rule evaluation",
				"event_type", eventType.String(),
				"user_id", userID,
			)
		} else {
			o.logger.Error("user load failed, skipping rule evaluation",
				"event_type", eventType.String(),
				"user_id", userID,
				"error", err,
			)
		}
		return event
	}

	o.engine.Evaluate(ctx, event, u)
	return event
}

// EmitAsync dispatches Emit on a bounded worker pool and returns
// immediately. Ordering inside the dispatched call is unchanged.
func (o *Orchestrator) EmitAsync(ctx context.Context, eventType shared.EventType, userID string, payload shared.Payload, opts ...EmitOption) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		o.pool <- struct{}{}
		defer func() { <-o.pool }()

		o.Emit(ctx, eventType, userID, payload, opts...)
	}()
}

// Wait blocks until all EmitAsync dispatches have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// append persists the event, retrying per config. Failure is logged and
// swallowed: emission must never fail the caller's primary operation
// because logging failed.
func (o *Orchestrator) append(ctx context.Context, event *shared.Event) {
	err := retry.Do(ctx, o.appendRetry, func(ctx context.Context) error {
		return o.log.Append(ctx, event)
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordAppendFailure()
		}
		o.logger.Error("event log append failed, continuing",
			"event_id", event.ID,
			"event_type", event.Type.String(),
			"user_id", event.UserID,
			"error", err,
		)
	}
}
