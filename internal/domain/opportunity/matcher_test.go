package opportunity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Opportunity {
	return []Opportunity{
		{ID: "opp-1", Title: "Data Analyst", RequiredSkills: []string{"python", "sql", "excel"}},
		{ID: "opp-2", Title: "Community Manager", RequiredSkills: []string{"communication", "social media"}},
		{ID: "opp-3", Title: "Junior Developer", RequiredSkills: []string{"python", "sql"}},
		{ID: "opp-4", Title: "Welder", RequiredSkills: []string{"welding"}},
	}
}

func TestMatcher_RanksByScoreDescending(t *testing.T) {
	m := NewMatcher()

	results := m.Match([]string{"python", "sql"}, testCatalog())

	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].MatchScore, results[i].MatchScore,
			"results must be non-increasing by score")
	}
	// opp-3 requires exactly the user's skills, so it outranks opp-1.
	assert.Equal(t, "opp-3", results[0].ID)
	assert.Equal(t, 1.0, results[0].MatchScore)
}

func TestMatcher_DiscardsZeroScores(t *testing.T) {
	m := NewMatcher()

	results := m.Match([]string{"python", "sql"}, testCatalog())

	for _, r := range results {
		assert.Greater(t, r.MatchScore, 0.0)
		assert.NotEqual(t, "opp-4", r.ID)
	}
}

func TestMatcher_EmptySkillsReturnsNil(t *testing.T) {
	m := NewMatcher()

	assert.Nil(t, m.Match(nil, testCatalog()))
	assert.Nil(t, m.Match([]string{}, testCatalog()))
	assert.Nil(t, m.Match([]string{"  "}, testCatalog()))
}

func TestMatcher_TiesPreserveCatalogOrder(t *testing.T) {
	m := NewMatcher()
	catalog := []Opportunity{
		{ID: "first", RequiredSkills: []string{"python", "a"}},
		{ID: "second", RequiredSkills: []string{"python", "b"}},
		{ID: "third", RequiredSkills: []string{"python", "c"}},
	}

	results := m.Match([]string{"python"}, catalog)

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestMatcher_SplitsMatchedAndMissing(t *testing.T) {
	m := NewMatcher()
	catalog := []Opportunity{
		{ID: "opp-1", RequiredSkills: []string{"Python", "SQL", "excel"}},
	}

	results := m.Match([]string{"python"}, catalog)

	require.Len(t, results, 1)
	assert.Equal(t, []string{"python"}, results[0].MatchedSkills)
	assert.Equal(t, []string{"sql", "excel"}, results[0].MissingSkills)
}

func TestMatcher_Idempotent(t *testing.T) {
	m := NewMatcher()
	skills := []string{"python", "sql"}

	first := m.Match(skills, testCatalog())
	second := m.Match(skills, testCatalog())

	assert.Equal(t, first, second)
}
