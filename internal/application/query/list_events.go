package query

import (
	"context"
	"log/slog"

	"github.com/empowerher/empowerhub/internal/domain/shared"
)

// DefaultEventLimit caps event history results when the caller sets no
// limit.
const DefaultEventLimit = 100

// EventHistory is the read side of the event log, for analytics and
// causality inspection. The orchestration core itself only appends.
type EventHistory interface {
	// ListByUser returns a user's events in emission order, newest last.
	ListByUser(ctx context.Context, userID string, limit int) ([]*shared.Event, error)
}

// ListUserEventsInput carries the parameters for ListUserEvents.
type ListUserEventsInput struct {
	UserID string `validate:"required"`

	// Limit caps the result count. Zero means DefaultEventLimit.
	Limit int `validate:"gte=0"`
}

// ListUserEventsResult is one user's event history.
type ListUserEventsResult struct {
	Events []*shared.Event `json:"events"`
	Total  int             `json:"total"`
}

// ListUserEvents reads a user's event history from the log.
type ListUserEvents struct {
	history EventHistory
	logger  *slog.Logger
}

// NewListUserEvents creates the query handler.
func NewListUserEvents(history EventHistory, logger *slog.Logger) *ListUserEvents {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListUserEvents{
		history: history,
		logger:  logger.With("query", "list_user_events"),
	}
}

// Execute returns the user's events in emission order. A user with no
// events yields an empty list, not an error: the log is a side channel
// and absence of history is a valid state.
func (q *ListUserEvents) Execute(ctx context.Context, in ListUserEventsInput) (*ListUserEventsResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, shared.WrapError("query", "ListUserEvents", shared.ErrInvalidInput, "invalid input", err)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	events, err := q.history.ListByUser(ctx, in.UserID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*shared.Event{}
	}
	return &ListUserEventsResult{Events: events, Total: len(events)}, nil
}
