// Package opportunity contains the opportunity catalog model and the
// skill-based matching engine.
package opportunity

import "context"

// Opportunity is a job or program listing from the catalog.
// The catalog is read-only to this core; display metadata is passed
// through to match results unchanged.
type Opportunity struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Organization    string   `json:"organization,omitempty"`
	Location        string   `json:"location,omitempty"`
	Salary          string   `json:"salary,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	RequiredSkills  []string `json:"required_skills"`
}

// MatchResult pairs an opportunity with its similarity score against one
// user's skill set. Results are ephemeral: computed per request, never
// persisted.
type MatchResult struct {
	Opportunity

	// MatchScore is the Jaccard similarity in [0, 1], rounded to two
	// decimal places.
	MatchScore float64 `json:"match_score"`

	// MatchedSkills are the required skills the user already has,
	// in catalog order.
	MatchedSkills []string `json:"matched_skills"`

	// MissingSkills are the required skills the user lacks,
	// in catalog order.
	MissingSkills []string `json:"missing_skills"`
}

// Catalog provides read access to the opportunity listing.
type Catalog interface {
	// List returns all opportunities in catalog order.
	List(ctx context.Context) ([]Opportunity, error)

	// GetByID returns one opportunity.
	// Returns shared.ErrOpportunityNotFound if absent.
	GetByID(ctx context.Context, id string) (*Opportunity, error)
}
