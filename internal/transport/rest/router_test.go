package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsjt/internal/config"
	"gsjt/internal/metrics"
	"gsjt/internal/model"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
	"gsjt/internal/service"
	"gsjt/internal/transport/ws"
)

type fixture struct {
	handler http.Handler
	assess  *service.AssessmentService
	auth    *service.AuthService
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Port: "0", AllowedOrigins: "*"},
		Auth: config.AuthConfig{AdminUsername: "admin", TokenTTL: time.Hour},
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	scenarios := repository.NewMemoryScenarioRepo()
	for _, s := range []*model.Scenario{
		{ScenarioID: "SCENARIO_A001", Title: "Found wallet", Category: "A", Options: []model.Option{
			{OptionID: "A", Scores: model.NewCurrentVector(model.CurrentScores{IntegrityAndHonesty: 3, ProblemSolvingUnderStress: 2, EffectiveCommunication: 1})},
		}},
		{ScenarioID: "SCENARIO_B002", Title: "Late shift", Category: "B", Options: []model.Option{
			{OptionID: "A", Scores: model.NewCurrentVector(model.CurrentScores{Discipline: 3})},
		}},
	} {
		require.NoError(t, scenarios.Upsert(ctx, s))
	}

	catalog := service.NewCatalogService(scenarios)
	assess := service.NewAssessmentService(repository.NewMemoryResultRepo(), catalog, service.UUIDGenerator{}, scoring.ModeStrict)
	auth, err := service.NewAuthService(cfg.Auth)
	require.NoError(t, err)

	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	assess.SetBroadcaster(hub)

	reg := prometheus.NewRegistry()
	return &fixture{
		handler: NewRouter(&Container{
			Config:         cfg,
			CatalogService: catalog,
			AssessService:  assess,
			AuthService:    auth,
			WSHub:          hub,
			Metrics:        metrics.New(reg),
			Gatherer:       reg,
		}),
		assess: assess,
		auth:   auth,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndAPITest(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(t, "GET", "/api/test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestScenarios(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(t, "GET", "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "SCENARIO_A001", list[0]["scenario_id"])

	rec = f.do(t, "GET", "/api/scenarios/SCENARIO_B002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"discipline":3`)
	assert.NotContains(t, rec.Body.String(), `"teamwork"`)

	rec = f.do(t, "GET", "/api/scenarios/SCENARIO_Z999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCandidateFlow(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(t, "POST", "/api/candidates/cand-1/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var start model.StartResponse
	decode(t, rec, &start)
	assert.True(t, start.Success)
	assert.True(t, strings.HasPrefix(start.TestID, "GSJT-"))

	rec = f.do(t, "POST", "/api/candidates/cand-1/answer", `{"scenario_id":"SCENARIO_A001","option_id":"A"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = f.do(t, "POST", "/api/candidates/cand-1/answer", `{"scenario_id":"SCENARIO_A001"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "POST", "/api/results/submit", `{"candidate_id":"cand-1","answers":[
		{"scenario_id":"SCENARIO_A001","option_id":"A"},
		{"scenario_id":"SCENARIO_B002","option_id":"A"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submit map[string]interface{}
	decode(t, rec, &submit)
	assert.Equal(t, start.TestID, submit["test_id"])
	assert.Equal(t, string(model.RatingNotRecommended), submit["rating"])
	totals := submit["total_scores"].(map[string]interface{})
	assert.Equal(t, float64(9), totals["total"])
	assert.Equal(t, map[string]interface{}{"A": float64(6), "B": float64(3), "C": float64(0)}, totals["category_totals"])

	rec = f.do(t, "GET", "/api/results/cand-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.CandidateResult
	decode(t, rec, &result)
	assert.Equal(t, model.ResultStatusCompleted, result.Status)
	assert.Len(t, result.Answers, 2)
}

func TestSubmit_BadRequests(t *testing.T) {
	f := newFixture(t, testConfig())

	for name, body := range map[string]string{
		"malformed":         `{`,
		"missing candidate": `{"answers":[{"scenario_id":"SCENARIO_A001","option_id":"A"}]}`,
		"empty answers":     `{"candidate_id":"c","answers":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, "POST", "/api/results/submit", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestResults_AdminRoutes(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	_, err := f.assess.Submit(ctx, "cand-1", []model.Answer{{ScenarioID: "SCENARIO_A001", OptionID: "A"}})
	require.NoError(t, err)
	_, err = f.assess.Start(ctx, "cand-2")
	require.NoError(t, err)

	rec := f.do(t, "GET", "/api/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.CandidateResult
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "cand-1", list[0].CandidateID)

	rec = f.do(t, "GET", "/api/results/leaderboard?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"candidate_id":"cand-1","total":6,"rank":1}]`, rec.Body.String())

	rec = f.do(t, "GET", "/api/results/leaderboard?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "DELETE", "/api/results/cand-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = f.do(t, "DELETE", "/api/results/cand-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, "GET", "/api/results/cand-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AdminPassword = "s3cret"
	cfg.Auth.JWTSecret = "test-secret"
	f := newFixture(t, cfg)

	rec := f.do(t, "GET", "/api/results", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, "POST", "/api/auth/login", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, "POST", "/api/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "POST", "/api/auth/login", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login model.LoginResponse
	decode(t, rec, &login)

	rec = f.do(t, "GET", "/api/results", "", "Authorization", "Bearer "+login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Candidate-facing reads stay public.
	rec = f.do(t, "GET", "/api/results/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPICatchAll(t *testing.T) {
	f := newFixture(t, testConfig())
	rec := f.do(t, "GET", "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"API route not found"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, testConfig())
	rec := f.do(t, "OPTIONS", "/api/results/submit", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1}
	f := newFixture(t, cfg)

	rec := f.do(t, "POST", "/api/candidates/c/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, "POST", "/api/candidates/c/start", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A fresh X-Forwarded-For value does not buy a new bucket.
	rec = f.do(t, "POST", "/api/candidates/c/start", "", "X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited.
	rec = f.do(t, "GET", "/api/scenarios", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())
	f.do(t, "GET", "/api/scenarios", "")

	rec := f.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gsjt_http_requests_total{code="200",route="/api/scenarios"} 1`)
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))
	cfg := testConfig()
	cfg.FrontendDist = dir
	f := newFixture(t, cfg)

	rec := f.do(t, "GET", "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = f.do(t, "GET", "/admin/results", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = f.do(t, "GET", "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "api paths never fall through to the SPA")
}
