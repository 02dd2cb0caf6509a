package main

import (
	"context" // context package is needed for Redis operations
	"html/template"
	"log" // log package is needed for logging

	"expense_tracker/internal/auth"   // Custom package for token validation
	"expense_tracker/internal/cache"  // Custom package for the Redis cache
	"expense_tracker/internal/config" // Custom package for configuration
	"expense_tracker/internal/web"    // Custom package for the web front-end

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the web front-end
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Redis client for the session store
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

	// The web tier validates tokens locally with the same signing config
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)

	sessions := web.NewSessionStore(cache.New(redisClient, "expense_tracker_web"), cfg.RefreshTokenTTL)
	client := web.NewClient(cfg.APIBaseURL)
	bridge := web.NewBridge(sessions, client, issuer)
	handlers := web.NewHandlers(client, sessions, issuer)

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	r.SetFuncMap(template.FuncMap{
		"hasRole": func(roles []string, name string) bool {
			for _, r := range roles {
				if r == name {
					return true
				}
			}
			return false
		},
	})
	r.LoadHTMLGlob("web/templates/*.tmpl")
	r.Static("/static", "web/static")

	handlers.Register(r, bridge)

	log.Println("Web front-end running on " + cfg.WebPort) // Log server start
	r.Run(":" + cfg.WebPort)                               // Start the server on port cfg.WebPort
}
