package command

import (
	"context"
	"log/slog"

	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/orchestration"
)

// CompleteSafetyModuleInput carries the parameters for CompleteSafetyModule.
type CompleteSafetyModuleInput struct {
	UserID   string `validate:"required"`
	ModuleID string `validate:"required"`

	// CauseEventID optionally links this completion to the event that
	// suggested the lesson, for causality chains in the event log.
	CauseEventID string
}

// CompleteSafetyModule records a finished safety lesson and emits the
// corresponding event. Lessons are repeatable; there is no duplicate check.
type CompleteSafetyModule struct {
	users        user.Store
	orchestrator *orchestration.Orchestrator
	logger       *slog.Logger
}

// NewCompleteSafetyModule creates the command handler.
func NewCompleteSafetyModule(users user.Store, orch *orchestration.Orchestrator, logger *slog.Logger) *CompleteSafetyModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteSafetyModule{
		users:        users,
		orchestrator: orch,
		logger:       logger.With("command", "complete_safety_module"),
	}
}

// Execute increments the user's safety lesson counter, persists the user,
// and emits a safety_module_completed event.
func (c *CompleteSafetyModule) Execute(ctx context.Context, in CompleteSafetyModuleInput) error {
	if err := validate.Struct(in); err != nil {
		return shared.WrapError("command", "CompleteSafetyModule", shared.ErrInvalidInput, "invalid input", err)
	}

	u, err := c.users.FindByUserID(ctx, in.UserID)
	if err != nil {
		return err
	}

	u.CompleteSafetyLesson()
	if err := c.users.Save(ctx, u); err != nil {
		return err
	}

	c.logger.Info("safety module completed",
		"user_id", in.UserID,
		"module_id", in.ModuleID,
		"total_lessons", u.CompletedSafetyLessons,
	)

	opts := []orchestration.EmitOption{
		orchestration.WithImpactDomain(shared.ImpactSafety),
	}
	if in.CauseEventID != "" {
		opts = append(opts, orchestration.WithCause(in.CauseEventID))
	}

	c.orchestrator.Emit(ctx, shared.EventSafetyModuleCompleted, in.UserID,
		shared.Payload{"module_id": in.ModuleID},
		opts...,
	)
	return nil
}
