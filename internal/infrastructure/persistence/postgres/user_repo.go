package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
)

// UserRepository implements user.Store for PostgreSQL.
//
// Progress collections are stored as JSONB documents; points are a plain
// integer column so IncrementPoints can be a single atomic UPDATE.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// FindByUserID returns the user with the given ID.
func (r *UserRepository) FindByUserID(ctx context.Context, id string) (*user.User, error) {
	query := `
		SELECT id, display_name, completed_skills, points, saved_opportunities,
		       completed_safety_lessons, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanUser(row)
}

// IncrementPoints atomically adds delta points to the user's total.
// The GREATEST guard keeps the stored total non-negative even if a
// negative delta slips through a future caller.
func (r *UserRepository) IncrementPoints(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE users
		SET points = GREATEST(points + $1, 0), updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// Save upserts the full user document.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, display_name, completed_skills, points, saved_opportunities,
			completed_safety_lessons, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			completed_skills = EXCLUDED.completed_skills,
			points = EXCLUDED.points,
			saved_opportunities = EXCLUDED.saved_opportunities,
			completed_safety_lessons = EXCLUDED.completed_safety_lessons,
			updated_at = EXCLUDED.updated_at
	`

	skillsJSON, err := json.Marshal(u.SkillNames())
	if err != nil {
		return fmt.Errorf("marshal completed skills: %w", err)
	}
	savedJSON, err := json.Marshal(u.SavedOpportunities)
	if err != nil {
		return fmt.Errorf("marshal saved opportunities: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		u.ID,
		u.DisplayName,
		skillsJSON,
		int(u.Points),
		savedJSON,
		u.CompletedSafetyLessons,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// scanUser maps one row onto the user aggregate.
func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u          user.User
		skillsJSON []byte
		savedJSON  []byte
		points     int
	)

	err := row.Scan(
		&u.ID,
		&u.DisplayName,
		&skillsJSON,
		&points,
		&savedJSON,
		&u.CompletedSafetyLessons,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var skills []string
	if err := json.Unmarshal(skillsJSON, &skills); err != nil {
		return nil, fmt.Errorf("unmarshal completed skills: %w", err)
	}
	for _, s := range skills {
		u.CompletedSkills = append(u.CompletedSkills, user.SkillID(s))
	}

	if err := json.Unmarshal(savedJSON, &u.SavedOpportunities); err != nil {
		return nil, fmt.Errorf("unmarshal saved opportunities: %w", err)
	}

	u.Points = user.Points(points)
	return &u, nil
}
