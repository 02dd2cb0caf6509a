package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"expense_tracker/internal/api"        // Custom package for API handlers
	"expense_tracker/internal/auth"       // Custom package for token issuing
	"expense_tracker/internal/cache"      // Custom package for the Redis cache
	"expense_tracker/internal/config"     // Custom package for configuration
	"expense_tracker/internal/repo"       // Custom package for data access
	"expense_tracker/internal/services"   // Custom package for business logic

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the API server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Token issuer shared by the services and the auth middleware
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)

	// Repositories
	users := repo.NewUserRepo(db)
	tokens := repo.NewTokenRepo(db)
	categories := repo.NewCategoryRepo(db)
	expenses := repo.NewExpenseRepo(db)

	// Services
	redisCache := cache.New(redisClient, "expense_tracker")
	authService := services.NewAuthService(users, tokens, issuer, cfg.RefreshTokenTTL)
	expenseService := services.NewExpenseService(expenses, categories)
	categoryService := services.NewCategoryService(categories, redisCache)
	adminService := services.NewAdminService(users)
	uploadService := services.NewUploadService(cfg.UploadDir)

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Services{
		Auth:          authService,
		Expenses:      expenseService,
		Categories:    categoryService,
		Admin:         adminService,
		Uploads:       uploadService,
		Issuer:        issuer,
		PublicBaseURL: cfg.PublicBaseURL,
		UploadDir:     cfg.UploadDir,
	})

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
