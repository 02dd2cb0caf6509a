package services

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"expense_tracker/internal/auth"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/repo"
)

const (
	maxFailedLogins = 5                // Failures before lockout
	lockoutWindow   = 15 * time.Minute // How long a locked account stays locked
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, roleNames ...string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// TokenStore is the refresh-token persistence surface.
type TokenStore interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Exchange(ctx context.Context, old, replacement *domain.RefreshToken) error
	DeleteByUser(ctx context.Context, userID string) error
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthService implements registration, login (with lockout), password
// changes and the refresh-token exchange.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserStore, tokens TokenStore, issuer *auth.TokenIssuer, refreshTTL time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, issuer: issuer, refreshTTL: refreshTTL}
}

// Register creates a user with the default User role.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewBusinessError("invalid email address")
	}
	if len(password) < 8 {
		return nil, NewBusinessError("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, email, string(hash), domain.RoleUser)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			logrus.WithField("email", email).Warn("registration attempt with existing email")
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	logrus.WithField("email", user.Email).Info("user registered")
	return user, nil
}

// Login verifies credentials, applies the lockout policy and mints a
// token pair on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		logrus.WithField("email", email).Warn("login attempt on locked account")
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.FailedLoginCount++
		if user.FailedLoginCount >= maxFailedLogins {
			until := now.Add(lockoutWindow)
			user.LockedUntil = &until
			user.FailedLoginCount = 0
			logrus.WithField("email", email).Warn("account locked after repeated failures")
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	// Successful login resets the failure counter
	if user.FailedLoginCount != 0 || user.LockedUntil != nil {
		user.FailedLoginCount = 0
		user.LockedUntil = nil
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	pair, err := s.issueTokens(ctx, user, nil)
	if err != nil {
		return nil, err
	}
	logrus.WithField("email", user.Email).Info("login succeeded")
	return pair, nil
}

// Refresh exchanges an active refresh token for a new pair. The
// presented token is revoked so it cannot be replayed. A token already
// revoked or past its expiry is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !stored.Active(time.Now()) {
		logrus.WithField("user_id", stored.UserID).Warn("refresh attempt with revoked or expired token")
		return nil, ErrInvalidRefreshToken
	}
	return s.issueTokens(ctx, &stored.User, stored)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return NewBusinessError("current password is incorrect")
	}
	if len(next) < 8 {
		return NewBusinessError("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	// Changing the password signs the user out everywhere
	if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	logrus.WithField("email", user.Email).Info("password changed")
	return nil
}

// ForgotPassword is a stub: it logs when the email exists and never
// reveals to the caller whether it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		logrus.WithField("email", email).Info("password reset requested")
	}
}

// issueTokens mints a new access+refresh pair. When old is non-nil the
// pair is stored via Exchange, revoking old in the same transaction;
// otherwise the new refresh token is simply saved.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, old *domain.RefreshToken) (*TokenPair, error) {
	access, expiresAt, err := s.issuer.AccessToken(user)
	if err != nil {
		return nil, err
	}
	opaque, err := auth.RefreshToken()
	if err != nil {
		return nil, err
	}
	replacement := &domain.RefreshToken{
		Token:     opaque,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if old != nil {
		err = s.tokens.Exchange(ctx, old, replacement)
	} else {
		err = s.tokens.Save(ctx, replacement)
	}
	if err != nil {
		return nil, err
	}
	return &TokenPair{Token: access, RefreshToken: opaque, ExpiresAt: expiresAt}, nil
}
