// Package user contains the user aggregate and its progress state.
package user

import (
	"strings"
	"time"

	"github.com/empowerher/empowerhub/internal/domain/shared"
)

// SkillID identifies a learnable skill. Comparison is case-insensitive;
// the canonical form is lowercase.
type SkillID string

// Canonical returns the lowercase canonical form of the skill ID.
func (s SkillID) Canonical() SkillID {
	return SkillID(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsValid checks that the skill ID is non-empty after trimming.
func (s SkillID) IsValid() bool {
	return len(s.Canonical()) > 0
}

// Points represents a user's accumulated empowerment points.
// Orchestration actions only ever increase this value.
type Points int

// IsValid checks that points are non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// User is the aggregate root for a platform member and her progress.
//
// Invariants:
//   - Points never decrease through orchestration actions.
//   - SavedOpportunities holds no duplicates and preserves save order.
//   - CompletedSkills is a set; membership matters, insertion order does not.
type User struct {
	ID          string
	DisplayName string

	// Progress state, mutated by rule actions and progress commands.
	CompletedSkills        []SkillID
	Points                 Points
	SavedOpportunities     []string
	CompletedSafetyLessons int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a user with empty progress.
func New(id, displayName string) (*User, error) {
	if id == "" {
		return nil, shared.WrapError("user", "New", shared.ErrInvalidID, "user ID is required", nil)
	}

	now := time.Now().UTC()
	return &User{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasSkill reports whether the skill is already completed.
// Comparison is case-insensitive.
func (u *User) HasSkill(skill SkillID) bool {
	canon := skill.Canonical()
	for _, s := range u.CompletedSkills {
		if s.Canonical() == canon {
			return true
		}
	}
	return false
}

// CompleteSkill records a completed skill.
// Returns ErrDuplicateSkill if the skill is already present.
func (u *User) CompleteSkill(skill SkillID) error {
	if !skill.IsValid() {
		return shared.WrapError("user", "CompleteSkill", shared.ErrInvalidInput, "skill ID is empty", nil)
	}
	if u.HasSkill(skill) {
		return shared.ErrDuplicateSkill
	}

	u.CompletedSkills = append(u.CompletedSkills, skill.Canonical())
	u.touch()
	return nil
}

// SkillNames returns the completed skills as plain strings, canonical form.
func (u *User) SkillNames() []string {
	names := make([]string, 0, len(u.CompletedSkills))
	for _, s := range u.CompletedSkills {
		names = append(names, string(s.Canonical()))
	}
	return names
}

// HasSavedOpportunity reports whether the opportunity is already saved.
func (u *User) HasSavedOpportunity(opportunityID string) bool {
	for _, id := range u.SavedOpportunities {
		if id == opportunityID {
			return true
		}
	}
	return false
}

// SaveOpportunity appends an opportunity to the saved list.
// Save order is preserved; duplicates return ErrDuplicateSave.
func (u *User) SaveOpportunity(opportunityID string) error {
	if opportunityID == "" {
		return shared.WrapError("user", "SaveOpportunity", shared.ErrInvalidID, "opportunity ID is empty", nil)
	}
	if u.HasSavedOpportunity(opportunityID) {
		return shared.ErrDuplicateSave
	}

	u.SavedOpportunities = append(u.SavedOpportunities, opportunityID)
	u.touch()
	return nil
}

// CompleteSafetyLesson increments the completed safety lesson counter.
func (u *User) CompleteSafetyLesson() {
	u.CompletedSafetyLessons++
	u.touch()
}

// AddPoints increases the user's point total. Negative deltas are rejected:
// orchestration never takes points away.
func (u *User) AddPoints(delta int) error {
	if delta < 0 {
		return shared.WrapError("user", "AddPoints", shared.ErrNegativeValue, "point delta cannot be negative", nil)
	}

	u.Points += Points(delta)
	u.touch()
	return nil
}

func (u *User) touch() {
	u.UpdatedAt = time.Now().UTC()
}
