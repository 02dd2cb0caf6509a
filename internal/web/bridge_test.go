package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/auth"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/services"
)

// memSessionCache is an in-memory stand-in for the Redis-backed cache.
type memSessionCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{entries: map[string][]byte{}}
}

func (m *memSessionCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memSessionCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memSessionCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// stubAPI fakes the refresh endpoint of the expense API.
type stubAPI struct {
	issuer       *auth.TokenIssuer
	acceptToken  string
	refreshCalls int
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls++
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != s.acceptToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid refresh token"})
			return
		}
		token, expiresAt, err := s.issuer.AccessToken(&domain.User{
			ID:    "user-1",
			Email: "bridge@example.com",
			Roles: []domain.Role{{ID: 1, Name: domain.RoleUser}},
		})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(services.TokenPair{
			Token:        token,
			RefreshToken: "rotated-refresh",
			ExpiresAt:    expiresAt,
		})
	})
	return mux
}

type bridgeFixture struct {
	router   *gin.Engine
	sessions *SessionStore
	issuer   *auth.TokenIssuer
	api      *stubAPI
}

func setupBridge(t *testing.T) *bridgeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := auth.NewTokenIssuer("test-secret", "test-issuer", "test-audience", time.Hour)
	api := &stubAPI{issuer: issuer, acceptToken: "good-refresh"}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	sessions := NewSessionStore(newMemSessionCache(), time.Hour)
	bridge := NewBridge(sessions, NewClient(server.URL), issuer)

	router := gin.New()
	router.Use(bridge.Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		session := SessionFrom(c)
		if session == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, session.Email)
	})

	return &bridgeFixture{router: router, sessions: sessions, issuer: issuer, api: api}
}

// seedSession stores a session whose access token has the given lifetime.
func (f *bridgeFixture) seedSession(t *testing.T, accessTTL time.Duration, refreshToken string) *Session {
	t.Helper()
	minter := auth.NewTokenIssuer("test-secret", "test-issuer", "test-audience", accessTTL)
	token, expiresAt, err := minter.AccessToken(&domain.User{
		ID:    "user-1",
		Email: "bridge@example.com",
		Roles: []domain.Role{{ID: 1, Name: domain.RoleUser}},
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	session, err := f.sessions.Create(context.Background(), "bridge@example.com", []string{domain.RoleUser},
		services.TokenPair{Token: token, RefreshToken: refreshToken, ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func (f *bridgeFixture) get(path string, session *Session) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if session != nil {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestBridge_NoCookie(t *testing.T) {
	f := setupBridge(t)
	w := f.get("/whoami", nil)
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}
	if f.api.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0", f.api.refreshCalls)
	}
}

func TestBridge_ValidToken(t *testing.T) {
	f := setupBridge(t)
	session := f.seedSession(t, time.Hour, "good-refresh")

	w := f.get("/whoami", session)
	if w.Body.String() != "bridge@example.com" {
		t.Errorf("body = %q, want the session email", w.Body.String())
	}
	if f.api.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, a live token must not refresh", f.api.refreshCalls)
	}
}

func TestBridge_ExpiredTokenSilentlyRefreshes(t *testing.T) {
	f := setupBridge(t)
	session := f.seedSession(t, -time.Minute, "good-refresh")

	w := f.get("/whoami", session)
	if w.Body.String() != "bridge@example.com" {
		t.Fatalf("body = %q, want the session email after silent refresh", w.Body.String())
	}
	if f.api.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", f.api.refreshCalls)
	}

	// The refreshed pair must be persisted on the session
	stored, err := f.sessions.Get(context.Background(), session.ID)
	if err != nil || stored == nil {
		t.Fatalf("session lookup after refresh: %v", err)
	}
	if stored.Tokens.RefreshToken != "rotated-refresh" {
		t.Errorf("stored refresh token = %q, want the rotated one", stored.Tokens.RefreshToken)
	}
	if _, err := f.issuer.ParseToken(stored.Tokens.Token); err != nil {
		t.Errorf("stored access token should be valid, got %v", err)
	}
}

func TestBridge_FailedRefreshEndsSession(t *testing.T) {
	f := setupBridge(t)
	session := f.seedSession(t, -time.Minute, "revoked-refresh")

	w := f.get("/whoami", session)
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous after failed refresh", w.Body.String())
	}

	stored, err := f.sessions.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if stored != nil {
		t.Error("session must be destroyed when the refresh is rejected")
	}
}

func TestBridge_TamperedTokenEndsSession(t *testing.T) {
	f := setupBridge(t)

	// A token signed with a different key is invalid, not expired
	foreign := auth.NewTokenIssuer("other-secret", "test-issuer", "test-audience", time.Hour)
	token, expiresAt, err := foreign.AccessToken(&domain.User{ID: "user-1", Email: "bridge@example.com"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	session, err := f.sessions.Create(context.Background(), "bridge@example.com", nil,
		services.TokenPair{Token: token, RefreshToken: "good-refresh", ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	w := f.get("/whoami", session)
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous for a tampered token", w.Body.String())
	}
	if f.api.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, invalid tokens must not trigger a refresh", f.api.refreshCalls)
	}
}
