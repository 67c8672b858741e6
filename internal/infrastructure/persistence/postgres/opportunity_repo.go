package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/shared"
)

// OpportunityRepository implements opportunity.Catalog for PostgreSQL.
// The catalog is read-only to the core; listings are maintained by an
// external ingestion process.
type OpportunityRepository struct {
	conn *Connection
}

// NewOpportunityRepository creates a new OpportunityRepository.
func NewOpportunityRepository(conn *Connection) *OpportunityRepository {
	return &OpportunityRepository{conn: conn}
}

// List returns all opportunities in catalog order. The position column
// fixes the order so tie-breaking in match results is reproducible across
// reads.
func (r *OpportunityRepository) List(ctx context.Context) ([]opportunity.Opportunity, error) {
	query := `
		SELECT id, title, organization, location, salary, experience_level, required_skills
		FROM opportunities
		ORDER BY position ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []opportunity.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, *opp)
	}
	return opportunities, rows.Err()
}

// GetByID returns one opportunity.
func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*opportunity.Opportunity, error) {
	query := `
		SELECT id, title, organization, location, salary, experience_level, required_skills
		FROM opportunities
		WHERE id = $1
	`

	return scanOpportunity(r.conn.QueryRow(ctx, query, id))
}

func scanOpportunity(row pgx.Row) (*opportunity.Opportunity, error) {
	var (
		opp        opportunity.Opportunity
		skillsJSON []byte
	)

	err := row.Scan(
		&opp.ID,
		&opp.Title,
		&opp.Organization,
		&opp.Location,
		&opp.Salary,
		&opp.ExperienceLevel,
		&skillsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("scan opportunity: %w", err)
	}

	if err := json.Unmarshal(skillsJSON, &opp.RequiredSkills); err != nil {
		return nil, fmt.Errorf("unmarshal required skills: %w", err)
	}
	return &opp, nil
}
