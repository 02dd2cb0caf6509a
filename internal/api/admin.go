package api

import (
	"errors"
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"expense_tracker/internal/middleware"
	"expense_tracker/internal/services"
)

// UpdateRolesRequest is the role-update payload
type UpdateRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// ListUsersHandler returns every user with their roles (admin only)
func ListUsersHandler(adminService *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := adminService.ListUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// UpdateUserRolesHandler replaces a user's role set (admin only)
func UpdateUserRolesHandler(adminService *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateRolesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		actorID := middleware.UserID(c)
		targetID := c.Param("id")
		result, err := adminService.UpdateRoles(c.Request.Context(), actorID, targetID, req.Roles)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrSelfDemotion):
				c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot remove your own admin access"})
			case errors.Is(err, services.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			case services.IsBusinessError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roles"})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
