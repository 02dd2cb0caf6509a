package api

import (
	"errors"
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework

	"expense_tracker/internal/services"
)

// CategoryRequest is the category create/update payload
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListCategoriesHandler returns all categories (cached)
func ListCategoriesHandler(categoryService *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := categoryService.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GetCategoryHandler returns one category by id
func GetCategoryHandler(categoryService *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		category, err := categoryService.Get(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// CreateCategoryHandler creates a category
func CreateCategoryHandler(categoryService *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category, err := categoryService.Create(c.Request.Context(), req.Name)
		if err != nil {
			if services.IsBusinessError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// UpdateCategoryHandler renames a category
func UpdateCategoryHandler(categoryService *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category, err := categoryService.Update(c.Request.Context(), uint(id), req.Name)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			case services.IsBusinessError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			}
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategoryHandler removes a category
func DeleteCategoryHandler(categoryService *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		if err := categoryService.Delete(c.Request.Context(), uint(id)); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
