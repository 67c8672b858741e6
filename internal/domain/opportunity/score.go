package opportunity

import (
	"math"
	"strings"
)

// Score computes the case-insensitive Jaccard similarity between a user's
// skill set and an opportunity's required skills:
//
//	|intersection| / |union|
//
// rounded to two decimal places. Either side being empty yields 0, not 1:
// an opportunity with no requirements must not register as a match.
//
// The function is pure, total, and independent of element order and
// duplicates in its inputs.
func Score(userSkills, requiredSkills []string) float64 {
	us := toSet(userSkills)
	rs := toSet(requiredSkills)

	if len(us) == 0 || len(rs) == 0 {
		return 0
	}

	intersection := 0
	for s := range rs {
		if us[s] {
			intersection++
		}
	}
	union := len(us) + len(rs) - intersection

	return round2(float64(intersection) / float64(union))
}

// toSet normalizes a skill list to a canonical lowercase set, dropping
// empty entries.
func toSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		canon := strings.ToLower(strings.TrimSpace(s))
		if canon != "" {
			set[canon] = true
		}
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
