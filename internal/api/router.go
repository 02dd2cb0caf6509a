package api

import (
	"net/http"

	"github.com/gin-gonic/gin" // Gin web framework

	"expense_tracker/internal/auth"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/middleware"
	"expense_tracker/internal/services"
)

// Services bundles everything the router needs.
type Services struct {
	Auth          *services.AuthService
	Expenses      *services.ExpenseService
	Categories    *services.CategoryService
	Admin         *services.AdminService
	Uploads       *services.UploadService
	Issuer        *auth.TokenIssuer
	PublicBaseURL string
	UploadDir     string
}

// RegisterRoutes wires the full HTTP surface onto the router.
func RegisterRoutes(r *gin.Engine, s Services) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Uploaded images are served statically
	r.Static("/uploads", s.UploadDir)

	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", RegisterHandler(s.Auth))
	authGroup.POST("/login", LoginHandler(s.Auth))
	authGroup.POST("/refresh", RefreshHandler(s.Auth))
	authGroup.POST("/forgot-password", ForgotPasswordHandler(s.Auth))
	authGroup.POST("/change-password", middleware.JWTAuthMiddleware(s.Issuer), ChangePasswordHandler(s.Auth))

	// Category routes: reads for any authenticated user, writes admin only
	categoryGroup := r.Group("/api/category")
	categoryGroup.Use(middleware.JWTAuthMiddleware(s.Issuer))
	categoryGroup.GET("", ListCategoriesHandler(s.Categories))
	categoryGroup.GET("/:id", GetCategoryHandler(s.Categories))
	adminCategory := categoryGroup.Group("")
	adminCategory.Use(middleware.RequireRoles(domain.RoleAdmin))
	adminCategory.POST("", CreateCategoryHandler(s.Categories))
	adminCategory.PUT("/:id", UpdateCategoryHandler(s.Categories))
	adminCategory.DELETE("/:id", DeleteCategoryHandler(s.Categories))

	// Expense routes (owner-scoped)
	expenseGroup := r.Group("/api/expense")
	expenseGroup.Use(middleware.JWTAuthMiddleware(s.Issuer))
	expenseGroup.GET("", ListExpensesHandler(s.Expenses))
	expenseGroup.GET("/stats", StatsHandler(s.Expenses))
	expenseGroup.GET("/export", ExportHandler(s.Expenses))
	expenseGroup.GET("/:id", GetExpenseHandler(s.Expenses))
	expenseGroup.POST("", CreateExpenseHandler(s.Expenses))
	expenseGroup.PUT("/:id", UpdateExpenseHandler(s.Expenses))
	expenseGroup.DELETE("/:id", DeleteExpenseHandler(s.Expenses))
	expenseGroup.POST("/upload", UploadImageHandler(s.Uploads, s.PublicBaseURL))
	expenseGroup.POST("/delete-image", DeleteImageHandler(s.Uploads))

	// Admin routes
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(s.Issuer), middleware.RequireRoles(domain.RoleAdmin))
	adminGroup.GET("/users", ListUsersHandler(s.Admin))
	adminGroup.POST("/users/:id/roles", UpdateUserRolesHandler(s.Admin))
}
