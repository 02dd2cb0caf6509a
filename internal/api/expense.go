package api

import (
	"encoding/csv"
	"errors"
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"
	"time"

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/sirupsen/logrus"

	"expense_tracker/internal/middleware"
	"expense_tracker/internal/repo"
	"expense_tracker/internal/services"
)

// DeleteImageRequest is the delete-image payload
type DeleteImageRequest struct {
	URL string `json:"url" binding:"required"`
}

// ListExpensesHandler returns one page of the user's expenses
func ListExpensesHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		query := parseExpenseQuery(c)

		page, err := expenseService.ListPaged(c.Request.Context(), query, userID)
		if err != nil {
			if services.IsBusinessError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetExpenseHandler returns one expense by id
func GetExpenseHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense id"})
			return
		}
		expense, err := expenseService.Get(c.Request.Context(), uint(id), middleware.UserID(c))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expense"})
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

// CreateExpenseHandler validates and stores a new expense
func CreateExpenseHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.ExpenseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		userID := middleware.UserID(c)
		expense, err := expenseService.Create(c.Request.Context(), input, userID)
		if err != nil {
			if services.IsBusinessError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("Failed to create expense")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense"})
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

// UpdateExpenseHandler validates and stores changes to an expense
func UpdateExpenseHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense id"})
			return
		}
		var input services.ExpenseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		userID := middleware.UserID(c)
		expense, err := expenseService.Update(c.Request.Context(), uint(id), input, userID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			case services.IsBusinessError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				logrus.WithFields(logrus.Fields{
					"user_id":    userID,
					"expense_id": id,
					"error":      err.Error(),
				}).Error("Failed to update expense")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense"})
			}
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

// DeleteExpenseHandler removes an expense
func DeleteExpenseHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense id"})
			return
		}
		if err := expenseService.Delete(c.Request.Context(), uint(id), middleware.UserID(c)); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// StatsHandler returns dashboard aggregates over a date window,
// defaulting to the last twelve months
func StatsHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to := parseStatsRange(c)
		stats, err := expenseService.Stats(c.Request.Context(), middleware.UserID(c), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ExportHandler streams the user's expenses in the date window as CSV
func ExportHandler(expenseService *services.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to := parseStatsRange(c)
		rows, err := expenseService.Export(c.Request.Context(), middleware.UserID(c), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export expenses"})
			return
		}
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="expenses.csv"`)
		w := csv.NewWriter(c.Writer)
		_ = w.WriteAll(rows)
	}
}

// UploadImageHandler stores a multipart image and returns its absolute URL
func UploadImageHandler(uploadService *services.UploadService, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file"})
			return
		}
		relativeURL, err := uploadService.SaveExpenseImage(file)
		if err != nil {
			if services.IsBusinessError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logrus.WithError(err).Error("Failed to store uploaded image")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		base := strings.TrimSuffix(publicBaseURL, "/")
		if base == "" {
			scheme := "http"
			if c.Request.TLS != nil {
				scheme = "https"
			}
			base = scheme + "://" + c.Request.Host
		}
		c.JSON(http.StatusOK, gin.H{"url": base + relativeURL})
	}
}

// DeleteImageHandler removes an uploaded image by URL
func DeleteImageHandler(uploadService *services.UploadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeleteImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL"})
			return
		}
		if err := uploadService.DeleteExpenseImage(req.URL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
			return
		}
		c.Status(http.StatusOK)
	}
}

// parseExpenseQuery reads the list query parameters. Invalid values
// fall back to defaults rather than failing the request.
func parseExpenseQuery(c *gin.Context) repo.ExpenseQuery {
	q := repo.ExpenseQuery{
		Status:  c.Query("status"),
		Search:  c.Query("search"),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.Query("pageSize")); err == nil && v > 0 {
		q.PageSize = v
	}
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		q.From = &t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		q.To = &t
	}
	if v, err := strconv.ParseUint(c.Query("categoryId"), 10, 32); err == nil {
		id := uint(v)
		q.CategoryID = &id
	}
	return q
}

// parseStatsRange reads from/to, defaulting to the last twelve months
func parseStatsRange(c *gin.Context) (time.Time, time.Time) {
	to := time.Now()
	from := to.AddDate(0, -11, 0)
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = t
	}
	return from, to
}
