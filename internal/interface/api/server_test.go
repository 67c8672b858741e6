package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empowerher/empowerhub/internal/application/command"
	"github.com/empowerher/empowerhub/internal/application/query"
	"github.com/empowerher/empowerhub/internal/domain/opportunity"
	"github.com/empowerher/empowerhub/internal/domain/rules"
	"github.com/empowerher/empowerhub/internal/domain/user"
	"github.com/empowerher/empowerhub/internal/infrastructure/notify"
	"github.com/empowerher/empowerhub/internal/infrastructure/persistence/memory"
	"github.com/empowerher/empowerhub/internal/orchestration"
)

// newTestServer wires the full stack over in-memory storage: commands and
// queries, the default rule table, and the HTTP routes.
func newTestServer(t *testing.T, matchLimit int, opportunities ...opportunity.Opportunity) (*httptest.Server, *memory.UserStore) {
	t.Helper()

	users := memory.NewUserStore()
	events := memory.NewEventLog()
	catalog := memory.NewCatalog(opportunities...)
	notifier := notify.NewLogNotifier(nil)

	registry, err := orchestration.DefaultRegistry(users, catalog, notifier, nil, nil)
	require.NoError(t, err)

	orch := orchestration.New(orchestration.Config{
		EventLog: events,
		Users:    users,
		Engine:   orchestration.NewEngine(rules.Default(), registry, nil, nil),
	})

	server := NewServer(Services{
		CompleteSkill:        command.NewCompleteSkill(users, orch, nil),
		SaveOpportunity:      command.NewSaveOpportunity(users, catalog, orch, nil),
		CompleteSafetyModule: command.NewCompleteSafetyModule(users, orch, nil),
		MatchOpportunities:   query.NewMatchOpportunities(users, catalog, nil, nil, nil, matchLimit),
		ListUserEvents:       query.NewListUserEvents(events, nil),
	}, nil)

	mux := http.NewServeMux()
	server.Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, users
}

func seedUser(t *testing.T, store *memory.UserStore, id string, skills ...string) {
	t.Helper()

	u, err := user.New(id, "Aisha")
	require.NoError(t, err)
	for _, s := range skills {
		require.NoError(t, u.CompleteSkill(user.SkillID(s)))
	}
	require.NoError(t, store.Save(context.Background(), u))
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCompleteSkill_Endpoint(t *testing.T) {
	ts, users := newTestServer(t, 0)
	seedUser(t, users, "user-1")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills", `{"skill":"python"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "python", body["skill"])

	// Same skill again, case-insensitively: conflict.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills", `{"skill":"PYTHON"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_exists", body["code"])
}

func TestCompleteSkill_UnknownUserIs404(t *testing.T) {
	ts, _ := newTestServer(t, 0)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/ghost/skills", `{"skill":"python"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestCompleteSkill_MissingSkillIs400(t *testing.T) {
	ts, users := newTestServer(t, 0)
	seedUser(t, users, "user-1")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["code"])
}

func TestSaveOpportunity_Endpoint(t *testing.T) {
	ts, users := newTestServer(t, 0, opportunity.Opportunity{
		ID: "opp-1", Title: "Data Analyst", RequiredSkills: []string{"python"},
	})
	seedUser(t, users, "user-1")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/saved-opportunities", `{"opportunity_id":"opp-1"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/saved-opportunities", `{"opportunity_id":"opp-1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_exists", body["code"])
}

func TestCompleteSafetyModule_AwardsPoints(t *testing.T) {
	ts, users := newTestServer(t, 0)
	seedUser(t, users, "user-1")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/safety-modules", `{"module_id":"mod-1"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	u, err := users.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, user.Points(orchestration.DefaultSafetyAward), u.Points)
}

func TestMatches_Endpoint(t *testing.T) {
	ts, users := newTestServer(t, 0,
		opportunity.Opportunity{ID: "opp-1", RequiredSkills: []string{"python", "sql", "excel"}},
		opportunity.Opportunity{ID: "opp-2", RequiredSkills: []string{"python", "sql"}},
		opportunity.Opportunity{ID: "opp-3", RequiredSkills: []string{"welding"}},
	)
	seedUser(t, users, "user-1", "python", "sql")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/matches", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.EqualValues(t, 2, body["total_matches"])
	matches := body["matches"].([]any)
	require.Len(t, matches, 2)
	first := matches[0].(map[string]any)
	assert.Equal(t, "opp-2", first["id"], "perfect match ranks first")
}

func TestMatches_ConfiguredLimitCapsResults(t *testing.T) {
	ts, users := newTestServer(t, 1,
		opportunity.Opportunity{ID: "opp-1", RequiredSkills: []string{"python"}},
		opportunity.Opportunity{ID: "opp-2", RequiredSkills: []string{"python"}},
	)
	seedUser(t, users, "user-1", "python")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/matches", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.EqualValues(t, 2, body["total_matches"])
	assert.EqualValues(t, 1, body["showing"])
	assert.Len(t, body["matches"].([]any), 1)

	// An explicit query parameter overrides the configured cap.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/matches?limit=2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["matches"].([]any), 2)
}

func TestEvents_EndpointExposesCausalityChain(t *testing.T) {
	ts, users := newTestServer(t, 0)
	seedUser(t, users, "user-1")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills", `{"skill":"python"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/events", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	events := body["events"].([]any)
	require.Len(t, events, 1)
	skillEvent := events[0].(map[string]any)
	assert.Equal(t, "skill_completed", skillEvent["type"])
	causeID := skillEvent["id"].(string)

	// Completing a safety module caused by the skill event links the two.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/safety-modules",
		`{"module_id":"mod-1","cause_event_id":"`+causeID+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/events", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	events = body["events"].([]any)
	require.Len(t, events, 2)
	safetyEvent := events[1].(map[string]any)
	assert.Equal(t, "safety_module_completed", safetyEvent["type"])
	assert.Equal(t, causeID, safetyEvent["cause_event_id"])
}

func TestEvents_LimitParameter(t *testing.T) {
	ts, users := newTestServer(t, 0)
	seedUser(t, users, "user-1")

	for _, skill := range []string{"python", "sql", "excel"} {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills",
			`{"skill":"`+skill+`"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/user-1/events?limit=2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total"])
	assert.Len(t, body["events"].([]any), 2)
}

func TestMalformedBodyIs400(t *testing.T) {
	ts, _ := newTestServer(t, 0)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/user-1/skills", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_json", body["code"])
}
