package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/rules"
	"github.com/empowerher/empowerhub/internal/domain/shared"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/infrastructure/persistence/memory"
	"github.com/empowerher/empowerhub/internal/orchestration"
)

type testEnv struct {
	users   *memory.UserStore
	events  *memory.EventLog
	catalog *memory.Catalog
	orch    *orchestration.Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUserStore()
	events := memory.NewEventLog()
	catalog := memory.NewCatalog(
		opportunity.Opportunity{ID: "opp-1", Title: "Data Analyst", RequiredSkills: []string{"python"}},
	)

	registry, err := orchestration.DefaultRegistry(users, catalog, nil, nil, nil)
	require.NoError(t, err)

	orch := orchestration.New(orchestration.Config{
		EventLog: events,
		Users:    users,
		Engine:   orchestration.NewEngine(rules.Default(), registry, nil, nil),
	})

	u, err := user.New("user-1", "Aisha")
	require.NoError(t, err)
	require.NoError(t, users.Save(context.Background(), u))

	return &testEnv{users: users, events: events, catalog: catalog, orch: orch}
}

func TestCompleteSkill_PersistsAndEmits(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewCompleteSkill(env.users, env.orch, nil)

	err := cmd.Execute(context.Background(), CompleteSkillInput{UserID: "user-1", Skill: "Python"})
	require.NoError(t, err)

	u, err := env.users.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, u.SkillNames())

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventSkillCompleted, events[0].Type)
	assert.Equal(t, "python", events[0].Payload["skill"])
	require.NotNil(t, events[0].ImpactDomain)
	assert.Equal(t, shared.ImpactSkill, *events[0].ImpactDomain)
}

func TestCompleteSkill_DuplicateDoesNotEmit(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewCompleteSkill(env.users, env.orch, nil)
	ctx := context.Background()

	require.NoError(t, cmd.Execute(ctx, CompleteSkillInput{UserID: "user-1", Skill: "python"}))
	err := cmd.Execute(ctx, CompleteSkillInput{UserID: "user-1", Skill: "PYTHON"})
	assert.ErrorIs(t, err, shared.ErrDuplicateSkill)
	assert.Equal(t, 1, env.events.Len())
}

func TestCompleteSkill_ValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewCompleteSkill(env.users, env.orch, nil)

	assert.Error(t, cmd.Execute(context.Background(), CompleteSkillInput{UserID: "user-1"}))
	assert.Error(t, cmd.Execute(context.Background(), CompleteSkillInput{Skill: "python"}))
	assert.Equal(t, 0, env.events.Len())
}

func TestSaveOpportunity_PersistsAndEmits(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewSaveOpportunity(env.users, env.catalog, env.orch, nil)

	err := cmd.Execute(context.Background(), SaveOpportunityInput{UserID: "user-1", OpportunityID: "opp-1"})
	require.NoError(t, err)

	u, err := env.users.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"opp-1"}, u.SavedOpportunities)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventOpportunitySaved, events[0].Type)
	assert.Equal(t, "opp-1", events[0].Payload["opportunity_id"])
}

func TestSaveOpportunity_UnknownOpportunity(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewSaveOpportunity(env.users, env.catalog, env.orch, nil)

	err := cmd.Execute(context.Background(), SaveOpportunityInput{UserID: "user-1", OpportunityID: "missing"})
	assert.ErrorIs(t, err, shared.ErrOpportunityNotFound)
	assert.Equal(t, 0, env.events.Len())
}

func TestSaveOpportunity_DuplicateDoesNotEmit(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewSaveOpportunity(env.users, env.catalog, env.orch, nil)
	ctx := context.Background()

	require.NoError(t, cmd.Execute(ctx, SaveOpportunityInput{UserID: "user-1", OpportunityID: "opp-1"}))
	err := cmd.Execute(ctx, SaveOpportunityInput{UserID: "user-1", OpportunityID: "opp-1"})
	assert.ErrorIs(t, err, shared.ErrDuplicateSave)
	assert.Equal(t, 1, env.events.Len())
}

func TestCompleteSafetyModule_AwardsPointsThroughRules(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewCompleteSafetyModule(env.users, env.orch, nil)
	ctx := context.Background()

	require.NoError(t, cmd.Execute(ctx, CompleteSafetyModuleInput{UserID: "user-1", ModuleID: "mod-1"}))
	require.NoError(t, cmd.Execute(ctx, CompleteSafetyModuleInput{UserID: "user-1", ModuleID: "mod-1"}))

	u, err := env.users.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, u.CompletedSafetyLessons)
	assert.Equal(t, user.Points(2*orchestration.DefaultSafetyAward), u.Points)
	assert.Equal(t, 2, env.events.Len())
}

func TestCompleteSafetyModule_ChainsCause(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewCompleteSafetyModule(env.users, env.orch, nil)

	err := cmd.Execute(context.Background(), CompleteSafetyModuleInput{
		UserID:       "user-1",
		ModuleID:     "mod-1",
		CauseEventID: "evt-prior",
	})
	require.NoError(t, err)

	events := env.events.Events()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].CauseEventID)
	assert.Equal(t, "evt-prior", *events[0].CauseEventID)
	require.NotNil(t, events[0].ImpactDomain)
	assert.Equal(t, shared.ImpactSafety, *events[0].ImpactDomain)
}
