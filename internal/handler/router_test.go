package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidesync/internal/app/collab"
	"slidesync/internal/app/project"
	"slidesync/internal/configs"
	"slidesync/internal/handler"
	"slidesync/internal/pkg/errs"
	"slidesync/internal/pkg/resp"
)

func newTestDeps(t *testing.T) *handler.AppDeps {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:   "development",
		Port:          8080,
		SweepInterval: time.Hour,
		IdleThreshold: 5 * time.Minute,
	}

	registry := project.NewRegistry(cfg.IdleThreshold)
	hub := collab.NewHub(registry, cfg.SweepInterval)
	t.Cleanup(hub.Shutdown)

	return &handler.AppDeps{Hub: hub, Registry: registry, Config: cfg}
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, resp.JSONResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body resp.JSONResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthEndpoint(t *testing.T) {
	router := handler.Router(newTestDeps(t))

	rec, body := doGet(t, router, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, body.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := handler.Router(newTestDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slidesync_")
}

func TestProjectStats(t *testing.T) {
	deps := newTestDeps(t)
	router := handler.Router(deps)

	p := deps.Registry.GetOrCreate("demo")
	p.AddUser(project.User{ID: "user_1"})
	require.Nil(t, p.ApplySlideUpdate("s1", project.Slide{}, "user_1", time.Now().UnixMilli()))
	p.AddComment(project.Comment{ID: "comment_1"})

	rec, body := doGet(t, router, "/api/projects/demo/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, body.Code)

	stats := body.Data.(map[string]any)
	assert.Equal(t, "demo", stats["projectId"])
	assert.Equal(t, float64(1), stats["users"])
	assert.Equal(t, float64(1), stats["slides"])
	assert.Equal(t, float64(1), stats["comments"])
	assert.NotZero(t, stats["lastActivity"])
}

func TestProjectStatsUnknownProject(t *testing.T) {
	router := handler.Router(newTestDeps(t))

	rec, body := doGet(t, router, "/api/projects/ghost/stats")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.ErrProjectNotFound, body.Code)
}

func TestProjectStatsRejectsOversizedID(t *testing.T) {
	router := handler.Router(newTestDeps(t))

	rec, body := doGet(t, router, "/api/projects/"+strings.Repeat("x", 200)+"/stats")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errs.ErrProjectIDInvalid, body.Code)
}
