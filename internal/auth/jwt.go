package auth

import (
	"crypto/rand"     // Refresh token entropy
	"encoding/base64" // Refresh token encoding
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library

	"expense_tracker/internal/domain"
)

var (
	// ErrInvalidToken covers signature, issuer, audience and malformed-token failures.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token is valid but past its expiry.
	// The session bridge needs this distinction to attempt a silent refresh.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by an access token.
type Claims struct {
	Email                string   `json:"email"` // User email
	Name                 string   `json:"name"`  // Display name
	Roles                []string `json:"roles"` // One entry per assigned role
	jwt.RegisteredClaims          // Standard JWT claims
}

// TokenIssuer mints access tokens and opaque refresh tokens.
type TokenIssuer struct {
	secret    string        // HMAC signing key
	issuer    string        // iss claim
	audience  string        // aud claim
	accessTTL time.Duration // Access token lifetime
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret, issuer, audience string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, audience: audience, accessTTL: accessTTL}
}

// AccessToken signs a time-limited token carrying the user's identity and role claims.
// Returns the token string and its expiry.
func (ti *TokenIssuer) AccessToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ti.accessTTL)
	claims := Claims{
		Email: user.Email,
		Name:  user.Email, // Email doubles as the display name
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(ti.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// RefreshToken generates a 64-byte cryptographically random opaque token.
func RefreshToken() (string, error) {
	raw := make([]byte, 64)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ParseToken validates signature, issuer, audience and expiry, and returns the claims.
func (ti *TokenIssuer) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(ti.secret), nil
	},
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(ti.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}
