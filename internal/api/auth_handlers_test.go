package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecocritique/internal/auth"
	"ecocritique/internal/config"
	"ecocritique/internal/db"
	"ecocritique/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setupRedis() *redis.Client {
	// Handler tests never talk to a real Redis; session calls are either
	// ignored or stubbed via auth.LookupSession.
	return redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	return cfg
}

func seedProfessor(t *testing.T, username, password string) user.User {
	t.Helper()
	hash, err := user.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	u := user.User{Username: username, PasswordHash: hash, Role: user.RoleProfessor, CreatedAt: time.Now()}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed professor: %v", err)
	}
	return u
}

func seedStudent(t *testing.T, studentID string) user.User {
	t.Helper()
	u := user.User{Username: studentID, Role: user.RoleStudent, CreatedAt: time.Now()}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	return u
}

// loginAs mints a JWT for u and stubs the session lookups so the auth
// middleware accepts it without Redis. The returned restore func must be
// deferred.
func loginAs(t *testing.T, cfg *config.Config, u user.User) (string, func()) {
	t.Helper()
	token, err := auth.GenerateJWT(cfg.Server.JWTSecret, u.ID, u.Username, string(u.Role), time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	prevLookup := auth.LookupSession
	prevRefresh := auth.RefreshSession
	auth.LookupSession = func(rdb *redis.Client, userId uint) (string, error) { return token, nil }
	auth.RefreshSession = func(rdb *redis.Client, userId uint, tok string, d time.Duration) error { return nil }
	return token, func() {
		auth.LookupSession = prevLookup
		auth.RefreshSession = prevRefresh
	}
}

func postJSON(r *gin.Engine, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r *gin.Engine, path string, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestLoginHandler_NeedSetup(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/login", LoginRequest{Username: "a", Password: "b"}, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden for initial setup required, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "need_setup") {
		t.Errorf("expected need_setup hint, got: %s", w.Body.String())
	}
}

func TestLoginHandler_Success(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	u := seedProfessor(t, "drgreen", "fieldwork")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/login", LoginRequest{Username: u.Username, Password: "fieldwork"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for valid login, got %d: %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}
	if resp.Token == "" || resp.Role != string(user.RoleProfessor) {
		t.Errorf("unexpected login response: %+v", resp)
	}
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	u := seedProfessor(t, "drgreen", "fieldwork")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/login", LoginRequest{Username: u.Username, Password: "wrong"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for bad password, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginHandler_RejectsStudentAccounts(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	// Students have no password hash, so password login cannot succeed.
	u := seedStudent(t, "stu123456")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/login", LoginRequest{Username: u.Username, Password: ""}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for student via password login, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStudentLoginHandler_CreatesAccount(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	code, err := auth.NewAccessCode(db.DB, "week 3")
	if err != nil {
		t.Fatalf("failed to create access code: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/student", StudentLoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/student", StudentLoginRequest{StudentID: "stu123456", AccessCode: code.Code}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for valid student login, got %d: %s", w.Code, w.Body.String())
	}
	var u user.User
	if err := db.DB.Where("username = ?", "stu123456").First(&u).Error; err != nil {
		t.Fatalf("student account not created: %v", err)
	}
	if u.Role != user.RoleStudent {
		t.Errorf("expected student role, got %s", u.Role)
	}
}

func TestStudentLoginHandler_ReusesAccount(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	seedStudent(t, "stu123456")
	code, err := auth.NewAccessCode(db.DB, "week 4")
	if err != nil {
		t.Fatalf("failed to create access code: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/student", StudentLoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/student", StudentLoginRequest{StudentID: "stu123456", AccessCode: code.Code}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var count int64
	db.DB.Model(&user.User{}).Count(&count)
	if count != 1 {
		t.Errorf("expected existing account to be reused, found %d users", count)
	}
}

func TestStudentLoginHandler_ShortID(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/student", StudentLoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/student", StudentLoginRequest{StudentID: "abc", AccessCode: "whatever"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 Bad Request for short student ID, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStudentLoginHandler_BadCode(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/student", StudentLoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/student", StudentLoginRequest{StudentID: "stu123456", AccessCode: "ECO-NOPE"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for bad access code, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStudentLoginHandler_RejectsProfessorID(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	seedProfessor(t, "profgreen", "pw")
	code, err := auth.NewAccessCode(db.DB, "week 5")
	if err != nil {
		t.Fatalf("failed to create access code: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/student", StudentLoginHandler(cfg, rdb))
	w := postJSON(r, "/auth/student", StudentLoginRequest{StudentID: "profgreen", AccessCode: code.Code}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for professor username via student login, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutHandler_Unauthorized(t *testing.T) {
	rdb := setupRedis()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/logout", LogoutHandler(rdb))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized for logout without identity, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMeHandler_ReturnsIdentity(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	cfg := testConfig()
	rdb := setupRedis()
	u := seedStudent(t, "stu777777")
	token, restore := loginAs(t, cfg, u)
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/auth/me", auth.Middleware(cfg, rdb, false), MeHandler())
	w := getJSON(r, "/auth/me", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "stu777777") {
		t.Errorf("expected response to contain username, got: %s", w.Body.String())
	}
}
