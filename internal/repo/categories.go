package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"expense_tracker/internal/domain"
)

// CategoryRepo persists categories.
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo creates a CategoryRepo.
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

// GetByID finds a category by id.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint) (*domain.Category, error) {
	var category domain.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a new category.
func (r *CategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Update saves changes to a category.
func (r *CategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete removes a category by id. Returns ErrNotFound when no row matched.
func (r *CategoryRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
