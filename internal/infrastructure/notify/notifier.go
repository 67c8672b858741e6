// Package notify delivers user-facing suggestions produced by rule actions.
package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log. It stands in for
// a real delivery channel (push, SMS, in-app inbox) until one is wired up.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify records the notification. It never fails; delivery problems on a
// real channel would be retried by that channel, not by the rule engine.
func (n *LogNotifier) Notify(ctx context.Context, userID, kind, message string) error {
	n.logger.InfoContext(ctx, "notification dispatched",
		"user_id", userID,
		"kind", kind,
		"message", message,
	)
	return nil
}
