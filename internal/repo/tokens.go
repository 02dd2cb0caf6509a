package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"expense_tracker/internal/domain"
)

// TokenRepo persists refresh tokens.
type TokenRepo struct {
	db *gorm.DB
}

// NewTokenRepo creates a TokenRepo.
func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Save inserts a new refresh token row.
func (r *TokenRepo) Save(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByToken looks up a refresh token by its opaque value, with the
// owning user (and roles) preloaded.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := r.db.WithContext(ctx).Preload("User.Roles").Where("token = ?", token).First(&rt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// Exchange revokes the old token and stores its replacement in one
// transaction. There is no row lock between the caller's read and this
// write, so two concurrent exchanges of the same token can both succeed.
func (r *TokenRepo) Exchange(ctx context.Context, old *domain.RefreshToken, replacement *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(old).Update("revoked_at", now).Error; err != nil {
			return err
		}
		return tx.Create(replacement).Error
	})
}

// DeleteByUser removes all refresh tokens of a user (logout everywhere).
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.RefreshToken{}).Error
}
