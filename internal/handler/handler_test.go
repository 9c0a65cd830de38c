package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sovieeet/gamevault/internal/config"
	"github.com/sovieeet/gamevault/internal/database"
	"github.com/sovieeet/gamevault/internal/models"
	"github.com/sovieeet/gamevault/internal/router"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "e2e-test-secret"

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		JWT: config.JWTConfig{
			Secret:        testSecret,
			ExpireMinutes: 30,
			CookieName:    "access_token",
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
		Auth: config.AuthConfig{
			PublicPrefixes: []string{"/api/auth/", "/login", "/static", "/healthz"},
			LoginPath:      "/login",
		},
	}
}

// setupServer builds the full router over a throwaway sqlite file with a
// seeded admin and a regular user.
func setupServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "e2e.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := database.CreateAdmin(db, "root", "rootpass1", bcrypt.MinCost); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("alicepass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := []models.User{
		{Username: "alice", PasswordHash: string(hash), Role: models.RoleUser},
		{Username: "bob", PasswordHash: string(hash), Role: models.RoleUser},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	return router.SetupRouter(testConfig(), db), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	token, _ := env.Data["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no access_token in response", username)
	}
	return token
}

// TestLogin_SetsCookieAndReturnsToken covers the happy login path.
func TestLogin_SetsCookieAndReturnsToken(t *testing.T) {
	r, _ := setupServer(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "alicepass1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if env.Data["access_token"] == "" {
		t.Error("no access_token in response")
	}

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("httponly access_token cookie not set")
	}
}

// TestLogin_BadCredentialsUniform checks that unknown user and wrong
// password answer identically.
func TestLogin_BadCredentialsUniform(t *testing.T) {
	r, _ := setupServer(t)

	w1, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "ghost", "password": "whatever1",
	})
	w2, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice", "password": "wrongpass",
	})

	if w1.Code != http.StatusUnauthorized || w2.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", w1.Code, w2.Code)
	}
	if w1.Body.String() != w2.Body.String() {
		t.Error("unknown-user and wrong-password responses differ")
	}
}

// TestTokenEndpoint_FormLogin covers the form-encoded variant.
func TestTokenEndpoint_FormLogin(t *testing.T) {
	r, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token",
		bytes.NewBufferString("username=alice&password=alicepass1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data["token_type"] != "bearer" {
		t.Errorf("token_type = %v, want bearer", env.Data["token_type"])
	}
}

// TestRegister_DuplicateUsername covers the duplicate conflict.
func TestRegister_DuplicateUsername(t *testing.T) {
	r, _ := setupServer(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "carol", "password": "carolpass1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("first register: status = %d, body = %s", w.Code, w.Body.String())
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "carol", "password": "carolpass1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register: status = %d, want 400", w.Code)
	}
	if env.Code != 40901 {
		t.Errorf("business code = %d, want 40901 (duplicate)", env.Code)
	}
}

// TestAdminEndpoint_NonAdminForbidden checks that a regular user gets 403 on
// a privileged call and no mutation happens.
func TestAdminEndpoint_NonAdminForbidden(t *testing.T) {
	r, db := setupServer(t)
	token := login(t, r, "alice", "alicepass1")

	w, _ := doJSON(t, r, http.MethodDelete, "/api/users/bob", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", "bob").Count(&count).Error; err != nil {
		t.Fatalf("count bob: %v", err)
	}
	if count != 1 {
		t.Error("bob was deleted by a forbidden request")
	}
}

// TestAdminEndpoint_AdminAllowed checks the same call succeeds for an admin.
func TestAdminEndpoint_AdminAllowed(t *testing.T) {
	r, db := setupServer(t)
	token := login(t, r, "root", "rootpass1")

	w, _ := doJSON(t, r, http.MethodDelete, "/api/users/bob", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", "bob").Count(&count).Error; err != nil {
		t.Fatalf("count bob: %v", err)
	}
	if count != 0 {
		t.Error("bob still present after admin delete")
	}

	// deleting again reports not found
	w, _ = doJSON(t, r, http.MethodDelete, "/api/users/bob", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Code)
	}
}

// TestLogout_RevokesToken checks login -> logout -> replay yields an
// unauthenticated rejection, not forbidden.
func TestLogout_RevokesToken(t *testing.T) {
	r, _ := setupServer(t)
	token := login(t, r, "root", "rootpass1")

	if w, _ := doJSON(t, r, http.MethodGet, "/api/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me before logout: status = %d", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	w, _ := doJSON(t, r, http.MethodDelete, "/api/users/alice", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replay after logout: status = %d, want 401", w.Code)
	}
}

// TestClearBlacklist_RestoresToken checks that the admin wipe makes a
// revoked, still valid token usable again.
func TestClearBlacklist_RestoresToken(t *testing.T) {
	r, _ := setupServer(t)
	aliceToken := login(t, r, "alice", "alicepass1")

	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/logout", aliceToken, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, "/api/me", aliceToken, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status = %d, want 401", w.Code)
	}

	rootToken := login(t, r, "root", "rootpass1")
	if w, _ := doJSON(t, r, http.MethodPost, "/api/admin/blacklist/clear", rootToken, nil); w.Code != http.StatusOK {
		t.Fatalf("clear blacklist: status = %d", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodGet, "/api/me", aliceToken, nil); w.Code != http.StatusOK {
		t.Errorf("me after clear: status = %d, want 200", w.Code)
	}
}

// TestGameCRUD covers catalog list and admin-only mutation.
func TestGameCRUD(t *testing.T) {
	r, _ := setupServer(t)
	rootToken := login(t, r, "root", "rootpass1")
	aliceToken := login(t, r, "alice", "alicepass1")

	game := gin.H{
		"name":         "Metal Gear Solid",
		"release_year": 1998,
		"developer":    "Konami",
		"image_url":    "https://example.com/mgs.png",
	}

	// non-admin cannot create
	if w, _ := doJSON(t, r, http.MethodPost, "/api/games", aliceToken, game); w.Code != http.StatusForbidden {
		t.Fatalf("create as user: status = %d, want 403", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/games", rootToken, game); w.Code != http.StatusCreated {
		t.Fatalf("create as admin: status = %d, want 201", w.Code)
	}

	// any authenticated user can list
	w, env := doJSON(t, r, http.MethodGet, "/api/games", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
	games, _ := env.Data["games"].([]interface{})
	if len(games) != 1 {
		t.Fatalf("list: %d games, want 1", len(games))
	}

	update := gin.H{
		"name":         "Metal Gear Solid",
		"release_year": 1998,
		"developer":    "Konami Computer Entertainment Japan",
		"image_url":    "https://example.com/mgs.png",
	}
	if w, _ := doJSON(t, r, http.MethodPut, "/api/games/Metal%20Gear%20Solid", rootToken, update); w.Code != http.StatusOK {
		t.Fatalf("update: status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPut, "/api/games/Unknown%20Game", rootToken, update); w.Code != http.StatusNotFound {
		t.Errorf("update unknown: status = %d, want 404", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodDelete, "/api/games/Metal%20Gear%20Solid", rootToken, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodDelete, "/api/games/Metal%20Gear%20Solid", rootToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", w.Code)
	}
}

// TestDeleteAllUsers_KeepsAdmins covers the bulk wipe.
func TestDeleteAllUsers_KeepsAdmins(t *testing.T) {
	r, db := setupServer(t)
	token := login(t, r, "root", "rootpass1")

	if w, _ := doJSON(t, r, http.MethodDelete, "/api/users", token, nil); w.Code != http.StatusOK {
		t.Fatalf("bulk delete: status = %d", w.Code)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "root" {
		t.Errorf("remaining users = %v, want only root", users)
	}
}

// TestRegisterByAdmin covers role assignment and the non-admin rejection.
func TestRegisterByAdmin(t *testing.T) {
	r, db := setupServer(t)
	rootToken := login(t, r, "root", "rootpass1")
	aliceToken := login(t, r, "alice", "alicepass1")

	body := gin.H{"username": "newadmin", "password": "newadminpass1", "role": "admin"}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/admin/users", aliceToken, body); w.Code != http.StatusForbidden {
		t.Fatalf("register-by-admin as user: status = %d, want 403", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/admin/users", rootToken, body); w.Code != http.StatusOK {
		t.Fatalf("register-by-admin: status = %d", w.Code)
	}

	var user models.User
	if err := db.Where("username = ?", "newadmin").First(&user).Error; err != nil {
		t.Fatalf("load newadmin: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
}

// TestAuditLog_RecordsAuthenticatedRequests covers the audit middleware and
// its admin-only listing endpoint.
func TestAuditLog_RecordsAuthenticatedRequests(t *testing.T) {
	r, db := setupServer(t)
	token := login(t, r, "root", "rootpass1")

	if w, _ := doJSON(t, r, http.MethodGet, "/api/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me: status = %d", w.Code)
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).Where("username = ?", "root").Count(&count).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if count == 0 {
		t.Error("no audit entries recorded for authenticated request")
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/admin/audit", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit list: status = %d", w.Code)
	}
	if _, ok := env.Data["logs"]; !ok {
		t.Error("audit list response has no logs field")
	}
}
