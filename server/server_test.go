package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/audit"
	"github.com/voltmesh/voltmesh/beckn"
	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/decision"
	"github.com/voltmesh/voltmesh/engine"
	"github.com/voltmesh/voltmesh/grid"
	"github.com/voltmesh/voltmesh/logging"
	"github.com/voltmesh/voltmesh/workload"
)

func newTestServer(t *testing.T, optFns ...func(o *Options)) (*Server, *workload.Queue, *audit.Trail) {
	t.Helper()

	queue := workload.NewQueue(500)
	queue.Add(core.Workload{
		JobID:         "job-render",
		Name:          "Render farm batch",
		EnergyKW:      80,
		DurationHours: 2,
		Priority:      core.PriorityMedium,
		EarliestStart: time.Now().UTC(),
		Deadline:      time.Now().UTC().Add(18 * time.Hour),
	})

	trail := audit.NewTrail(audit.NewMemoryStore(), logging.NoOpLogger{})
	client := beckn.NewClient("http://127.0.0.1:1")
	eng := engine.New([]core.Agent{
		workload.NewAgent(queue),
		grid.NewAgent(grid.NewSimulatedSource(), 24),
		decision.NewAgent(decision.NewOptimizer()),
		beckn.NewAgent(client),
	}, trail)

	return NewServer(":0", eng, queue, trail, logging.NoOpLogger{}, optFns...), queue, trail
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestServer_Status(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["workloads"])
	assert.Nil(t, body["last_run"])

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lastRun, ok := decodeBody(t, rec)["last_run"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, lastRun["run_id"])
}

func TestServer_RunCycle(t *testing.T) {
	srv, _, trail := newTestServer(t)
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, false, body["skipped"])
	decisions, ok := body["decisions"].([]any)
	require.True(t, ok)
	assert.Len(t, decisions, 1)
	assert.NotEmpty(t, body["order_id"])

	count, err := trail.Verify(t.Context())
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestServer_RunCycleDemoSeedReseedsQueue(t *testing.T) {
	srv, queue, _ := newTestServer(t, func(o *Options) {
		o.DemoSeed = 5
	})
	handler := srv.Handler()

	// An aged-out or empty queue must not produce a skipped cycle: the
	// demo endpoint reseeds before every run.
	queue.Clear()
	require.Empty(t, queue.All())

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["skipped"])
	decisions, ok := body["decisions"].([]any)
	require.True(t, ok)
	assert.Len(t, decisions, 5)
	assert.Len(t, queue.All(), 5)

	// Every cycle starts from a fresh sample set.
	rec = doRequest(t, handler, http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["skipped"])
	assert.Len(t, queue.All(), 5)
}

func TestServer_RunCycleWithoutDemoSeedSkipsEmptyQueue(t *testing.T) {
	srv, queue, _ := newTestServer(t)
	queue.Clear()

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["skipped"])
	assert.Empty(t, queue.All())
}

func TestServer_ListWorkloads(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/v1/workloads", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	workloads, ok := body["workloads"].([]any)
	require.True(t, ok)
	assert.Len(t, workloads, 1)
	assert.Contains(t, body, "capacity")
}

func TestServer_SubmitWorkload(t *testing.T) {
	srv, queue, _ := newTestServer(t)
	handler := srv.Handler()

	deadline := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/workloads",
		`{"job_id":"job-new","name":"New batch","energy_usage_kw":50,"duration_hours":1,"priority":"low","sla_deadline":"`+deadline+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "job-new", decodeBody(t, rec)["job_id"])
	assert.Len(t, queue.All(), 2)

	for name, payload := range map[string]string{
		"invalid json":     `{`,
		"missing job id":   `{"energy_usage_kw":50,"duration_hours":1,"sla_deadline":"` + deadline + `"}`,
		"zero energy":      `{"job_id":"x","energy_usage_kw":0,"duration_hours":1,"sla_deadline":"` + deadline + `"}`,
		"missing deadline": `{"job_id":"x","energy_usage_kw":50,"duration_hours":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/api/v1/workloads", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, decodeBody(t, rec)["success"])
		})
	}
}

func TestServer_CompleteWorkload(t *testing.T) {
	srv, queue, trail := newTestServer(t)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/workloads/job-render/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(core.StatusCompleted), decodeBody(t, rec)["status"])

	all := queue.All()
	require.Len(t, all, 1)
	assert.Equal(t, core.StatusCompleted, all[0].Status)

	entries, err := trail.Store().ByJob(t.Context(), "job-render")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.EventJobCompleted, entries[0].Type)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/workloads/no-such-job/complete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AuditEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Greater(t, body["count"].(float64), 0.0)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/audit?job_id=absent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decodeBody(t, rec)["count"])

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/audit/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	verify := decodeBody(t, rec)
	assert.Equal(t, true, verify["valid"])
	assert.Greater(t, verify["checked"].(float64), 0.0)
}

func TestServer_Settlement(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/cycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/settlement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "financial_metrics")
	assert.Contains(t, body, "environmental_metrics")
	assert.Greater(t, body["audit_trail_entries"].(float64), 0.0)
}
