package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
)

func testUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.New("user-1", "Aisha")
	require.NoError(t, err)
	return u
}

func TestCondition_Always(t *testing.T) {
	ok, err := AlwaysTrue().Evaluate(testUser(t), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCondition_MetricComparison(t *testing.T) {
	u := testUser(t)
	require.NoError(t, u.CompleteSkill("python"))
	require.NoError(t, u.CompleteSkill("sql"))

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"gte met", MetricCondition(MetricCompletedSkills, OpGreaterOrEqual, 2), true},
		{"gte not met", MetricCondition(MetricCompletedSkills, OpGreaterOrEqual, 3), false},
		{"eq met", MetricCondition(MetricCompletedSkills, OpEqual, 2), true},
		{"neq met", MetricCondition(MetricCompletedSkills, OpNotEqual, 5), true},
		{"lt met", MetricCondition(MetricPoints, OpLessThan, 1), true},
		{"lte met", MetricCondition(MetricSavedOpportunities, OpLessOrEqual, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Evaluate(u, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_Predicate(t *testing.T) {
	cond := PredicateCondition(func(_ *user.User, payload shared.Payload) bool {
		return payload["skill"] == "python"
	})

	ok, err := cond.Evaluate(testUser(t), shared.Payload{"skill": "python"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cond.Evaluate(testUser(t), shared.Payload{"skill": "sql"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCondition_InvalidMetricIsError(t *testing.T) {
	cond := MetricCondition("unknown_metric", OpEqual, 1)

	_, err := cond.Evaluate(testUser(t), nil)
	assert.Error(t, err)
	assert.True(t, shared.IsConfiguration(err))
}

func TestCondition_EmptyIsError(t *testing.T) {
	_, err := Condition{}.Evaluate(testUser(t), nil)
	assert.Error(t, err)
}

func TestRule_Validate(t *testing.T) {
	valid := Rule{
		Name:      "r",
		Trigger:   shared.EventSkillCompleted,
		Condition: AlwaysTrue(),
		Actions:   []ActionName{ActionAwardSafetyPoints},
	}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	assert.Error(t, noName.Validate())

	noTrigger := valid
	noTrigger.Trigger = ""
	assert.Error(t, noTrigger.Validate())

	noActions := valid
	noActions.Actions = nil
	assert.Error(t, noActions.Validate())
}

func TestSet_ForTriggerPreservesDeclarationOrder(t *testing.T) {
	set, err := NewSet(
		Rule{Name: "a", Trigger: shared.EventSkillCompleted, Condition: AlwaysTrue(), Actions: []ActionName{ActionTriggerOpportunityMatching}},
		Rule{Name: "b", Trigger: shared.EventOpportunitySaved, Condition: AlwaysTrue(), Actions: []ActionName{ActionSuggestSafetyLesson}},
		Rule{Name: "c", Trigger: shared.EventSkillCompleted, Condition: AlwaysTrue(), Actions: []ActionName{ActionAwardSafetyPoints}},
	)
	require.NoError(t, err)

	matched := set.ForTrigger(shared.EventSkillCompleted)
	require.Len(t, matched, 2)
	assert.Equal(t, "a", matched[0].Name)
	assert.Equal(t, "c", matched[1].Name)
}

func TestSet_ForTriggerUnknownType(t *testing.T) {
	set := Default()
	assert.Empty(t, set.ForTrigger("profile_updated"))
}

func TestDefault_Table(t *testing.T) {
	set := Default()
	require.Equal(t, 3, set.Len())

	skillRules := set.ForTrigger(shared.EventSkillCompleted)
	require.Len(t, skillRules, 1)
	assert.Equal(t, []ActionName{ActionTriggerOpportunityMatching}, skillRules[0].Actions)

	saveRules := set.ForTrigger(shared.EventOpportunitySaved)
	require.Len(t, saveRules, 1)
	assert.Equal(t, OpEqual, saveRules[0].Condition.Operator)
	assert.Equal(t, 1, saveRules[0].Condition.Value)

	safetyRules := set.ForTrigger(shared.EventSafetyModuleCompleted)
	require.Len(t, safetyRules, 1)
	assert.True(t, safetyRules[0].Condition.Always)
}
