package auth

import (
	"errors"
	"testing"
	"time"

	"expense_tracker/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-123",
		Email: "test@example.com",
		Roles: []domain.Role{
			{ID: 1, Name: domain.RoleUser},
			{ID: 2, Name: domain.RoleAdmin},
		},
	}
}

func TestTokenIssuer_AccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "test-issuer", "test-audience", 2*time.Hour)
	user := testUser()

	token, expiresAt, err := issuer.AccessToken(user)
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if token == "" {
		t.Error("AccessToken() returned empty token")
	}
	if time.Until(expiresAt) < time.Hour {
		t.Errorf("expiresAt = %v, want roughly two hours out", expiresAt)
	}

	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("claims.Subject = %v, want %v", claims.Subject, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("claims.Email = %v, want %v", claims.Email, user.Email)
	}
	if !claims.HasRole(domain.RoleAdmin) || !claims.HasRole(domain.RoleUser) {
		t.Errorf("claims.Roles = %v, want both roles", claims.Roles)
	}
}

func TestTokenIssuer_ExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "test-issuer", "test-audience", -time.Minute)

	token, _, err := issuer.AccessToken(testUser())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}

	_, err = issuer.ParseToken(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ParseToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestTokenIssuer_RejectsMismatchedConfig(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "test-issuer", "test-audience", time.Hour)
	token, _, err := issuer.AccessToken(testUser())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}

	tests := []struct {
		name   string
		parser *TokenIssuer
	}{
		{"wrong secret", NewTokenIssuer("other-secret", "test-issuer", "test-audience", time.Hour)},
		{"wrong issuer", NewTokenIssuer("test-secret", "other-issuer", "test-audience", time.Hour)},
		{"wrong audience", NewTokenIssuer("test-secret", "test-issuer", "other-audience", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parser.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "test-issuer", "test-audience", time.Hour)
	if _, err := issuer.ParseToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshToken_Unique(t *testing.T) {
	a, err := RefreshToken()
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	b, err := RefreshToken()
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if a == b {
		t.Error("two refresh tokens should never collide")
	}
	if len(a) < 80 {
		t.Errorf("len(token) = %d, want at least 80 characters of entropy", len(a))
	}
}
