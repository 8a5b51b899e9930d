package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ecocritique/internal/dashboard"
	"ecocritique/internal/db"

	"github.com/gin-gonic/gin"
)

func buildTestRouter(t *testing.T, subpath string) *gin.Engine {
	t.Helper()
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	cfg.Server.Subpath = subpath
	svc := newTutorService(t, &stubTutorGenerator{reply: "unused"})
	kb := testKnowledgeStore()
	agg := dashboard.NewAggregator(db.DB)
	return SetupRouter(cfg, setupRedis(), svc, kb, agg)
}

func TestSetupRouter_BasicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildTestRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health should return 200, got %d", w.Code)
	}
	if !contains(w.Body.String(), "ok") {
		t.Errorf("expected health body to contain 'ok', got: %s", w.Body.String())
	}
}

func TestSetupRouter_Subpath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildTestRouter(t, "/ecocritique")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ecocritique/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /ecocritique/health should return 200, got %d", w.Code)
	}
}

func TestSetupRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildTestRouter(t, "")

	for _, route := range []struct {
		method string
		path   string
	}{
		{"GET", "/articles"},
		{"POST", "/tutor/message"},
		{"GET", "/tutor/history"},
		{"GET", "/dashboard/summary"},
		{"GET", "/knowledge"},
		{"POST", "/access-codes"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token should return 401, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestSetupRouter_ProfessorRoutesRejectStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := buildTestRouter(t, "")
	cfg := testConfig()
	u := seedStudent(t, "stu123456")
	token, restore := loginAs(t, cfg, u)
	defer restore()

	for _, route := range []struct {
		method string
		path   string
	}{
		{"POST", "/access-codes"},
		{"GET", "/dashboard/summary"},
		{"GET", "/knowledge"},
		{"POST", "/articles"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s as student should return 403, got %d", route.method, route.path, w.Code)
		}
	}
}
