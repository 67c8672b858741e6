package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CountersIncrement(t *testing.T) {
	m := New()

	m.RecordEventEmitted("skill_completed")
	m.RecordEventEmitted("skill_completed")
	m.RecordEventEmitted("opportunity_saved")
	m.RecordAppendFailure()
	m.RecordRuleEvaluated()
	m.RecordRuleFired()
	m.RecordRuleFailure()
	m.RecordActionExecution("awardSafetyPoints", true)
	m.RecordActionExecution("awardSafetyPoints", false)
	m.RecordMatch(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsEmitted.WithLabelValues("skill_completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsEmitted.WithLabelValues("opportunity_saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.appendFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rulesEvaluated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionRuns.WithLabelValues("awardSafetyPoints", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionRuns.WithLabelValues("awardSafetyPoints", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchRequests))
}

func TestManager_HandlerServesMetrics(t *testing.T) {
	m := New()
	m.RecordEventEmitted("skill_completed")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "empowerhub_orchestrator_events_emitted_total")
}

func TestManager_CustomNamespace(t *testing.T) {
	m := New(WithNamespace("custom"))
	m.RecordEventEmitted("skill_completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Contains(t, rec.Body.String(), "custom_orchestrator_events_emitted_total")
}
