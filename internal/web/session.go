package web

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Session identifiers
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"expense_tracker/internal/services"
)

// SessionCookie is the cookie carrying the opaque session identifier.
const SessionCookie = "expense_session"

// Session is the server-side state tied to a browser cookie. The tokens
// never leave the server; the browser only holds the random session id.
type Session struct {
	ID     string             `json:"id"`
	Email  string             `json:"email"`
	Roles  []string           `json:"roles"`
	Tokens services.TokenPair `json:"tokens"`
}

// IsAdmin reports whether the session user carries the Admin role.
func (s *Session) IsAdmin() bool {
	for _, r := range s.Roles {
		if r == "Admin" {
			return true
		}
	}
	return false
}

// SessionCache is the key-value surface the session store needs,
// normally the Redis cache.
type SessionCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionStore keeps sessions in Redis so web instances stay stateless.
type SessionStore struct {
	cache SessionCache
	ttl   time.Duration // Matches the refresh token lifetime
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(c SessionCache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

// Create persists a fresh session and returns it.
func (s *SessionStore) Create(ctx context.Context, email string, roles []string, tokens services.TokenPair) (*Session, error) {
	session := &Session{
		ID:     uuid.NewString(),
		Email:  email,
		Roles:  roles,
		Tokens: tokens,
	}
	if err := s.cache.Set(ctx, sessionKey(session.ID), session, s.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session by id. Missing sessions return (nil, nil).
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	found, err := s.cache.Get(ctx, sessionKey(id), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// Save rewrites a session, resetting its TTL.
func (s *SessionStore) Save(ctx context.Context, session *Session) error {
	return s.cache.Set(ctx, sessionKey(session.ID), session, s.ttl)
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKey(id))
}

func sessionKey(id string) string {
	return "session:" + id
}

// SetCookie writes the session cookie on the response.
func SetCookie(c *gin.Context, session *Session, maxAge int) {
	c.SetCookie(SessionCookie, session.ID, maxAge, "/", "", false, true)
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// Destroy removes the server-side session and expires the cookie.
func (s *SessionStore) Destroy(c *gin.Context) {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		if err := s.Delete(c.Request.Context(), id); err != nil {
			logrus.WithError(err).Warn("failed to delete session")
		}
	}
	ClearCookie(c)
}
