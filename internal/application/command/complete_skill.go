// Package command implements the write-side application services. Each
// command mutates user state through the store and then emits a domain
// event; emission is fire-and-forget relative to the command result.
package command

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/orchestration"
)

var validate = validator.New()

// CompleteSkillInput carries the parameters for CompleteSkill.
type CompleteSkillInput struct {
	UserID string `validate:"required"`
	Skill  string `validate:"required"`
}

// CompleteSkill records a finished skill course on the user's profile and
// emits the corresponding event.
type CompleteSkill struct {
	users        user.Store
	orchestrator *orchestration.Orchestrator
	logger       *slog.Logger
}

// NewCompleteSkill creates the command handler.
func NewCompleteSkill(users user.Store, orch *orchestration.Orchestrator, logger *slog.Logger) *CompleteSkill {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteSkill{
		users:        users,
		orchestrator: orch,
		logger:       logger.With("command", "complete_skill"),
	}
}

// Execute adds the skill to the user's completed set, persists the user,
// and emits a skill_completed event. Completing the same skill twice
// returns ErrDuplicateSkill without emitting.
func (c *CompleteSkill) Execute(ctx context.Context, in CompleteSkillInput) error {
	if err := validate.Struct(in); err != nil {
		return shared.WrapError("command", "CompleteSkill", shared.ErrInvalidInput, "invalid input", err)
	}

	u, err := c.users.FindByUserID(ctx, in.UserID)
	if err != nil {
		return err
	}

	if err := u.CompleteSkill(user.SkillID(in.Skill)); err != nil {
		return err
	}
	if err := c.users.Save(ctx, u); err != nil {
		return err
	}

	c.logger.Info("skill completed",
		"user_id", in.UserID,
		"skill", in.Skill,
		"total_skills", len(u.CompletedSkills),
	)

	c.orchestrator.Emit(ctx, shared.EventSkillCompleted, in.UserID,
		shared.Payload{"skill": string(user.SkillID(in.Skill).Canonical())},
		orchestration.WithImpactDomain(shared.ImpactSkill),
	)
	return nil
}
