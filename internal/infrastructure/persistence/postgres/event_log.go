package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/empowerher/empowerhub/internal/domain/shared"
)

// EventLog implements shared.EventLog on an append-only events table.
//
// Explainability columns are nullable; they are written only when the
// event carries the corresponding metadata, so absent fields stay NULL in
// storage and are omitted on read.
type EventLog struct {
	conn *Connection
}

// NewEventLog creates a new EventLog.
func NewEventLog(conn *Connection) *EventLog {
	return &EventLog{conn: conn}
}

// Append persists one event. Records are immutable: there is no update or
// delete path through this type.
func (l *EventLog) Append(ctx context.Context, event *shared.Event) error {
	query := `
		INSERT INTO events (
			id, user_id, event_type, payload, occurred_at,
			cause_event_id, impact_domain, confidence_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var payloadJSON []byte
	if event.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	var impactDomain *string
	if event.ImpactDomain != nil {
		d := string(*event.ImpactDomain)
		impactDomain = &d
	}

	_, err := l.conn.Exec(ctx, query,
		event.ID,
		event.UserID,
		string(event.Type),
		payloadJSON,
		event.Timestamp,
		event.CauseEventID,
		impactDomain,
		event.ConfidenceScore,
	)
	if err != nil {
		return shared.WrapError("orchestration", "Append", shared.ErrPersistence, "insert event", err)
	}
	return nil
}

// ListByUser returns a user's events in emission order, newest last.
// Read path for analytics and debugging; the orchestration core only
// appends.
func (l *EventLog) ListByUser(ctx context.Context, userID string, limit int) ([]*shared.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, event_type, payload, occurred_at,
		       cause_event_id, impact_domain, confidence_score
		FROM events
		WHERE user_id = $1
		ORDER BY occurred_at ASC
		LIMIT $2
	`

	rows, err := l.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*shared.Event
	for rows.Next() {
		var (
			e            shared.Event
			eventType    string
			payloadJSON  []byte
			impactDomain *string
		)

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&eventType,
			&payloadJSON,
			&e.Timestamp,
			&e.CauseEventID,
			&impactDomain,
			&e.ConfidenceScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.Type = shared.EventType(eventType)
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		if impactDomain != nil {
			d := shared.ImpactDomain(*impactDomain)
			e.ImpactDomain = &d
		}

		events = append(events, &e)
	}
	return events, rows.Err()
}
