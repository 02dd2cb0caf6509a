package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"expense_tracker/internal/domain"
)

// UserRepo persists users and their role assignments.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user with the given role names.
// Returns ErrDuplicate when the email is already registered.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string, roleNames ...string) (*domain.User, error) {
	var roles []domain.Role
	if err := r.db.WithContext(ctx).Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Roles:        roles,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail finds a user by email, with roles preloaded.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID finds a user by id, with roles preloaded.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by email, with roles preloaded.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("email").Find(&users).Error
	return users, err
}

// Update saves changes to the user row itself (not role assignments).
func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Omit("Roles").Save(user).Error
}

// ReplaceRoles swaps the user's role assignments for the given set.
func (r *UserRepo) ReplaceRoles(ctx context.Context, user *domain.User, roleNames []string) error {
	var roles []domain.Role
	if err := r.db.WithContext(ctx).Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) != len(roleNames) {
		return ErrNotFound // Unknown role name
	}
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}
