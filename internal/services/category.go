package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/repo"
)

const (
	categoryListKey = "categories:all" // Cache key for the full category list
	categoryListTTL = 5 * time.Minute
)

// CategoryStore is the persistence surface the category service needs.
type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id uint) (*domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uint) error
}

// ListCache is the cache surface for the category list.
type ListCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CategoryDTO is the API representation of a category.
type CategoryDTO struct {
	CategoryID uint   `json:"categoryId"`
	Name       string `json:"name"`
}

// CategoryService applies category rules and the list read-through cache.
type CategoryService struct {
	categories CategoryStore
	cache      ListCache
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories CategoryStore, cache ListCache) *CategoryService {
	return &CategoryService{categories: categories, cache: cache}
}

// List returns all categories, serving from the cache when possible.
// Mutations invalidate the cached list at their call sites.
func (s *CategoryService) List(ctx context.Context) ([]CategoryDTO, error) {
	var cached []CategoryDTO
	if found, err := s.cache.Get(ctx, categoryListKey, &cached); err == nil && found {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = CategoryDTO{CategoryID: c.ID, Name: c.Name}
	}
	if err := s.cache.Set(ctx, categoryListKey, dtos, categoryListTTL); err != nil {
		logrus.WithError(err).Warn("failed to cache category list")
	}
	return dtos, nil
}

// Get returns a category by id.
func (s *CategoryService) Get(ctx context.Context, id uint) (*CategoryDTO, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &CategoryDTO{CategoryID: category.ID, Name: category.Name}, nil
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	category := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &CategoryDTO{CategoryID: category.ID, Name: category.Name}, nil
}

// Update renames an existing category.
func (s *CategoryService) Update(ctx context.Context, id uint, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	category.Name = name
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &CategoryDTO{CategoryID: category.ID, Name: category.Name}, nil
}

// Delete removes a category by id.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoryListKey); err != nil {
		logrus.WithError(err).Warn("failed to invalidate category cache")
	}
}

func validateCategoryName(name string) error {
	if len(name) < 3 || len(name) > 50 {
		return NewBusinessError("category name must be between 3 and 50 characters")
	}
	return nil
}
