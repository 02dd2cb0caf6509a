package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"expense_tracker/internal/auth"
)

// Context keys set by the session bridge.
const (
	ContextSession = "session"
	ContextClaims  = "claims"
)

// Bridge validates the session-stored access token on every request and
// silently refreshes it when it has expired. Any other validation failure
// drops the session so the user is treated as signed out.
type Bridge struct {
	sessions *SessionStore
	client   *Client
	issuer   *auth.TokenIssuer
}

// NewBridge creates a Bridge.
func NewBridge(sessions *SessionStore, client *Client, issuer *auth.TokenIssuer) *Bridge {
	return &Bridge{sessions: sessions, client: client, issuer: issuer}
}

// Middleware resolves the session for each request. Requests without a valid
// session continue unauthenticated; handlers decide whether to redirect.
func (b *Bridge) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			c.Next()
			return
		}

		session, err := b.sessions.Get(c.Request.Context(), id)
		if err != nil {
			logrus.WithError(err).Warn("session lookup failed")
			c.Next()
			return
		}
		if session == nil {
			ClearCookie(c)
			c.Next()
			return
		}

		claims, err := b.issuer.ParseToken(session.Tokens.Token)
		if errors.Is(err, auth.ErrExpiredToken) {
			// Access token ran out; trade the refresh token for a new pair.
			// One attempt only, a failed refresh means the session is over.
			pair, refreshErr := b.client.Refresh(c.Request.Context(), session.Tokens.RefreshToken)
			if refreshErr != nil {
				b.sessions.Destroy(c)
				c.Next()
				return
			}
			claims, err = b.issuer.ParseToken(pair.Token)
			if err == nil {
				session.Tokens = pair
				if saveErr := b.sessions.Save(c.Request.Context(), session); saveErr != nil {
					logrus.WithError(saveErr).Warn("failed to persist refreshed session")
				}
			}
		}
		if err != nil {
			// Bad signature, wrong issuer, tampering. Not recoverable.
			b.sessions.Destroy(c)
			c.Next()
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireSession redirects unauthenticated requests to the login page.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionFrom(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin renders a 403 page for non-admin sessions.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if session == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !session.IsAdmin() {
			c.HTML(http.StatusForbidden, "error.tmpl", gin.H{
				"Session": session,
				"Message": "You do not have access to this page.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom pulls the session the bridge stored on the context.
func SessionFrom(c *gin.Context) *Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

// ClaimsFrom pulls the validated token claims from the context.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
