package api

import (
	"errors"
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"expense_tracker/internal/middleware"
	"expense_tracker/internal/services"
)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the refresh-exchange payload
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest is the password-change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ForgotPasswordRequest is the forgot-password payload
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RegisterHandler creates a new user account
func RegisterHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Password != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
			return
		}
		if _, err := authService.Register(c.Request.Context(), req.Email, req.Password); err != nil {
			switch {
			case errors.Is(err, services.ErrEmailTaken):
				c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already registered"})
			case services.IsBusinessError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler authenticates a user and returns a token pair
func LoginHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		pair, err := authService.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAccountLocked):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Account temporarily locked. Try again later"})
			case errors.Is(err, services.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			}
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair
func RefreshHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		pair, err := authService.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, services.ErrInvalidRefreshToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}

// ChangePasswordHandler changes the authenticated user's password
func ChangePasswordHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		userID := middleware.UserID(c)
		if err := authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
			switch {
			case errors.Is(err, services.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			case services.IsBusinessError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}

// ForgotPasswordHandler always responds the same way so callers cannot
// probe which emails exist
func ForgotPasswordHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		authService.ForgotPassword(c.Request.Context(), req.Email)
		c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, you will receive reset instructions"})
	}
}
