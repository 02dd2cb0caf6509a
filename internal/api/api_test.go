package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"expense_tracker/internal/auth"
	"expense_tracker/internal/db"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/repo"
	"expense_tracker/internal/services"
)

// memCache is an in-memory stand-in for the Redis category cache.
type memCache struct {
	entries map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type testApp struct {
	router *gin.Engine
	issuer *auth.TokenIssuer
}

// setupApp wires the full API against an in-memory database, the way
// the server main does against MySQL and Redis.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(conn, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	issuer := auth.NewTokenIssuer("test-secret", "test-issuer", "test-audience", time.Hour)
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	categories := repo.NewCategoryRepo(conn)
	expenses := repo.NewExpenseRepo(conn)

	uploadDir := t.TempDir()
	router := gin.New()
	RegisterRoutes(router, Services{
		Auth:       services.NewAuthService(users, tokens, issuer, 24*time.Hour),
		Expenses:   services.NewExpenseService(expenses, categories),
		Categories: services.NewCategoryService(categories, &memCache{entries: map[string][]byte{}}),
		Admin:      services.NewAdminService(users),
		Uploads:    services.NewUploadService(uploadDir),
		Issuer:     issuer,
		UploadDir:  uploadDir,
	})
	return &testApp{router: router, issuer: issuer}
}

func (a *testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func (a *testApp) login(t *testing.T, email, password string) services.TokenPair {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	return decodeBody[services.TokenPair](t, w)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	w := app.request(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	app := setupApp(t)

	w := app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":           "flow@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	pair := app.login(t, "flow@example.com", "password123")
	claims, err := app.issuer.ParseToken(pair.Token)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Email != "flow@example.com" {
		t.Errorf("claims.Email = %v", claims.Email)
	}
	if !claims.HasRole(domain.RoleUser) || claims.HasRole(domain.RoleAdmin) {
		t.Errorf("claims.Roles = %v, want just User", claims.Roles)
	}

	// Exchange the refresh token and make sure the old one dies
	w = app.request(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": pair.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
	rotated := decodeBody[services.TokenPair](t, w)
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	w = app.request(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": pair.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", w.Code)
	}
}

func TestRegister_MismatchedPasswords(t *testing.T) {
	app := setupApp(t)
	w := app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":           "mismatch@example.com",
		"password":        "password123",
		"confirmPassword": "different123",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSeededAdminLogin(t *testing.T) {
	app := setupApp(t)
	pair := app.login(t, "admin@example.com", "admin-password")

	claims, err := app.issuer.ParseToken(pair.Token)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if !claims.HasRole(domain.RoleAdmin) || !claims.HasRole(domain.RoleUser) {
		t.Errorf("claims.Roles = %v, want both seeded roles", claims.Roles)
	}
}

func TestExpenseEndpoints(t *testing.T) {
	app := setupApp(t)
	admin := app.login(t, "admin@example.com", "admin-password")

	// Admin creates a category for everyone
	w := app.request(t, http.MethodPost, "/api/category", admin.Token, gin.H{"name": "Food"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body = %s", w.Code, w.Body.String())
	}
	category := decodeBody[services.CategoryDTO](t, w)

	// A regular user records an expense against it
	w = app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "user@example.com", "password": "password123", "confirmPassword": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}
	user := app.login(t, "user@example.com", "password123")

	w = app.request(t, http.MethodPost, "/api/expense", user.Token, gin.H{
		"name":         "Groceries",
		"startDate":    time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
		"totalAmount":  90.0,
		"installments": 3,
		"status":       "Pendente",
		"categoryId":   category.CategoryID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decodeBody[services.ExpenseDTO](t, w)
	if created.InstallmentAmount != 30 {
		t.Errorf("installmentAmount = %v, want 30", created.InstallmentAmount)
	}
	if created.CategoryName != "Food" {
		t.Errorf("categoryName = %v, want Food", created.CategoryName)
	}

	// The owner sees it, the admin does not
	w = app.request(t, http.MethodGet, "/api/expense", user.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	page := decodeBody[repo.PagedResult[services.ExpenseDTO]](t, w)
	if page.TotalCount != 1 {
		t.Errorf("totalCount = %d, want 1", page.TotalCount)
	}

	w = app.request(t, http.MethodGet, "/api/expense", admin.Token, nil)
	adminPage := decodeBody[repo.PagedResult[services.ExpenseDTO]](t, w)
	if adminPage.TotalCount != 0 {
		t.Errorf("admin totalCount = %d, expenses are per user", adminPage.TotalCount)
	}

	// Validation errors surface as 400s
	w = app.request(t, http.MethodPost, "/api/expense", user.Token, gin.H{
		"name":        "Bad",
		"startDate":   time.Now().AddDate(0, 0, 5).Format(time.RFC3339),
		"totalAmount": 10.0,
		"status":      "Pendente",
		"categoryId":  category.CategoryID,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("future start date status = %d, want 400", w.Code)
	}
}

func TestCategoryWritesAreAdminOnly(t *testing.T) {
	app := setupApp(t)
	w := app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "user@example.com", "password": "password123", "confirmPassword": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}
	user := app.login(t, "user@example.com", "password123")

	w = app.request(t, http.MethodPost, "/api/category", user.Token, gin.H{"name": "Food"})
	if w.Code != http.StatusForbidden {
		t.Errorf("create category as user status = %d, want 403", w.Code)
	}

	// Reads are open to any authenticated user
	w = app.request(t, http.MethodGet, "/api/category", user.Token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("list categories as user status = %d, want 200", w.Code)
	}

	w = app.request(t, http.MethodGet, "/api/category", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("list categories anonymously status = %d, want 401", w.Code)
	}
}

func TestAdminRoleEndpoints(t *testing.T) {
	app := setupApp(t)
	admin := app.login(t, "admin@example.com", "admin-password")

	w := app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "promote@example.com", "password": "password123", "confirmPassword": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}

	w = app.request(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users status = %d", w.Code)
	}
	users := decodeBody[[]services.UserRolesDTO](t, w)
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	var target services.UserRolesDTO
	for _, u := range users {
		if u.Email == "promote@example.com" {
			target = u
		}
	}

	w = app.request(t, http.MethodPost, "/api/admin/users/"+target.ID+"/roles", admin.Token,
		gin.H{"roles": []string{"Admin", "User"}})
	if w.Code != http.StatusOK {
		t.Fatalf("update roles status = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decodeBody[services.UserRolesDTO](t, w)
	if len(updated.Roles) != 2 {
		t.Errorf("roles = %v, want both", updated.Roles)
	}

	// Regular users cannot reach the admin surface
	w = app.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "plain@example.com", "password": "password123", "confirmPassword": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}
	plain := app.login(t, "plain@example.com", "password123")
	w = app.request(t, http.MethodGet, "/api/admin/users", plain.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("list users as plain user status = %d, want 403", w.Code)
	}
}

func TestSelfDemotionRejected(t *testing.T) {
	app := setupApp(t)
	admin := app.login(t, "admin@example.com", "admin-password")

	claims, err := app.issuer.ParseToken(admin.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	w := app.request(t, http.MethodPost, "/api/admin/users/"+claims.Subject+"/roles", admin.Token,
		gin.H{"roles": []string{"User"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self demotion status = %d, want 400", w.Code)
	}
}
