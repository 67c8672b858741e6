package command

import (
	"context"
	"log/slog"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/orchestration"
)

// SaveOpportunityInput carries the parameters for SaveOpportunity.
type SaveOpportunityInput struct {
	UserID        string `validate:"required"`
	OpportunityID string `validate:"required"`
}

// SaveOpportunity bookmarks a catalog opportunity on the user's profile and
// emits the corresponding event.
type SaveOpportunity struct {
	users        user.Store
	catalog      opportunity.Catalog
	orchestrator *orchestration.Orchestrator
	logger       *slog.Logger
}

// NewSaveOpportunity creates the command handler.
func NewSaveOpportunity(users user.Store, catalog opportunity.Catalog, orch *orchestration.Orchestrator, logger *slog.Logger) *SaveOpportunity {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveOpportunity{
		users:        users,
		catalog:      catalog,
		orchestrator: orch,
		logger:       logger.With("command", "save_opportunity"),
	}
}

// Execute verifies the opportunity exists, appends it to the user's saved
// list, persists the user, and emits an opportunity_saved event. Saving
// the same opportunity twice returns ErrDuplicateSave without emitting.
func (c *SaveOpportunity) Execute(ctx context.Context, in SaveOpportunityInput) error {
	if err := validate.Struct(in); err != nil {
		return shared.WrapError("command", "SaveOpportunity", shared.ErrInvalidInput, "invalid input", err)
	}

	if _, err := c.catalog.GetByID(ctx, in.OpportunityID); err != nil {
		return err
	}

	u, err := c.users.FindByUserID(ctx, in.UserID)
	if err != nil {
		return err
	}

	if err := u.SaveOpportunity(in.OpportunityID); err != nil {
		return err
	}
	if err := c.users.Save(ctx, u); err != nil {
		return err
	}

	c.logger.Info("opportunity saved",
		"user_id", in.UserID,
		"opportunity_id", in.OpportunityID,
		"total_saved", len(u.SavedOpportunities),
	)

	c.orchestrator.Emit(ctx, shared.EventOpportunitySaved, in.UserID,
		shared.Payload{"opportunity_id": in.OpportunityID},
		orchestration.WithImpactDomain(shared.ImpactLivelihood),
	)
	return nil
}
