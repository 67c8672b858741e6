// Package query implements the read-side application services.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/pkg/metrics"
)

var validate = validator.New()

// DefaultMatchLimit caps the number of matches returned when the caller
// does not set a limit.
const DefaultMatchLimit = 20

// HintNoSkills is surfaced when the user has no completed skills yet.
const HintNoSkills = "complete a skill course to unlock opportunity matching"

// MatchOpportunitiesInput carries the parameters for MatchOpportunities.
type MatchOpportunitiesInput struct {
	UserID string `validate:"required"`

	// Limit caps the result count. Zero means DefaultMatchLimit.
	Limit int `validate:"gte=0"`
}

// MatchOpportunitiesResult is the ranked match listing for one user.
type MatchOpportunitiesResult struct {
	Matches      []opportunity.MatchResult `json:"matches"`
	TotalMatches int                       `json:"total_matches"`
	Showing      int                       `json:"showing"`
	UserSkills   []string                  `json:"user_skills"`
	Hint         string                    `json:"hint,omitempty"`
}

// MatchOpportunities ranks the opportunity catalog against a user's
// completed skills.
type MatchOpportunities struct {
	users        user.Store
	catalog      opportunity.Catalog
	matcher      *opportunity.Matcher
	logger       *slog.Logger
	metrics      *metrics.Manager
	defaultLimit int
}

// NewMatchOpportunities creates the query handler. defaultLimit caps
// results when the request sets no limit; zero falls back to
// DefaultMatchLimit.
func NewMatchOpportunities(users user.Store, catalog opportunity.Catalog, matcher *opportunity.Matcher, logger *slog.Logger, m *metrics.Manager, defaultLimit int) *MatchOpportunities {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = opportunity.NewMatcher()
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultMatchLimit
	}
	return &MatchOpportunities{
		users:        users,
		catalog:      catalog,
		matcher:      matcher,
		logger:       logger.With("query", "match_opportunities"),
		metrics:      m,
		defaultLimit: defaultLimit,
	}
}

// Execute loads the user and the catalog, scores every opportunity, and
// returns the ranked matches. Unlike event emission, a missing user is an
// error here: the caller asked about a specific user and deserves to know.
func (q *MatchOpportunities) Execute(ctx context.Context, in MatchOpportunitiesInput) (*MatchOpportunitiesResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, shared.WrapError("query", "MatchOpportunities", shared.ErrInvalidInput, "invalid input", err)
	}

	start := time.Now()

	u, err := q.users.FindByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	skills := u.SkillNames()
	if len(skills) == 0 {
		return &MatchOpportunitiesResult{
			UserSkills: []string{},
			Hint:       HintNoSkills,
		}, nil
	}

	catalog, err := q.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := q.matcher.Match(skills, catalog)

	limit := in.Limit
	if limit <= 0 {
		limit = q.defaultLimit
	}
	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if q.metrics != nil {
		q.metrics.RecordMatch(time.Since(start))
	}
	q.logger.Info("opportunities matched",
		"user_id", in.UserID,
		"total_matches", total,
		"showing", len(matches),
	)

	return &MatchOpportunitiesResult{
		Matches:      matches,
		TotalMatches: total,
		Showing:      len(matches),
		UserSkills:   skills,
	}, nil
}
