package opportunity

import (
	"sort"
	"strings"
)

// Matcher ranks catalog opportunities against one user's skill set.
// It holds no state and is safe for concurrent use.
type Matcher struct{}

// NewMatcher creates a new Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match scores every opportunity against the user's skills and returns the
// results ranked by score.
//
// Behavior:
//   - An empty userSkills set returns nil without scoring; callers should
//     surface a hint to acquire skills first.
//   - Results with score 0 are discarded.
//   - Results are sorted descending by score; ties preserve the catalog's
//     original relative order (stable sort), so output is deterministic.
//
// Match is read-only and idempotent.
func (m *Matcher) Match(userSkills []string, opportunities []Opportunity) []MatchResult {
	if len(toSet(userSkills)) == 0 {
		return nil
	}

	results := make([]MatchResult, 0, len(opportunities))
	for _, opp := range opportunities {
		score := Score(userSkills, opp.RequiredSkills)
		if score == 0 {
			continue
		}

		matched, missing := splitSkills(userSkills, opp.RequiredSkills)
		results = append(results, MatchResult{
			Opportunity:   opp,
			MatchScore:    score,
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	return results
}

// splitSkills partitions the required skills into those the user has and
// those she lacks. Plain set membership, not similarity-weighted; output
// follows the required-skill catalog order.
func splitSkills(userSkills, requiredSkills []string) (matched, missing []string) {
	us := toSet(userSkills)
	seen := make(map[string]bool, len(requiredSkills))

	for _, req := range requiredSkills {
		canon := strings.ToLower(strings.TrimSpace(req))
		if canon == "" || seen[canon] {
			continue
		}
		seen[canon] = true

		if us[canon] {
			matched = append(matched, canon)
		} else {
			missing = append(missing, canon)
		}
	}
	return matched, missing
}
