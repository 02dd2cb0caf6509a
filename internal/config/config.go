package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For token lifetimes

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // API server port
	WebPort         string        // Web front-end port
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	JWTSecret       string        // JWT signing key
	JWTIssuer       string        // JWT issuer claim
	JWTAudience     string        // JWT audience claim
	AccessTokenTTL  time.Duration // Access token lifetime
	RefreshTokenTTL time.Duration // Refresh token lifetime
	RedisAddr       string        // Redis server address
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	UploadDir       string        // Root directory for uploaded images
	PublicBaseURL   string        // Base URL used to build absolute image URLs
	APIBaseURL      string        // API address used by the web front-end
	AdminEmail      string        // Seed admin account email (optional)
	AdminPassword   string        // Seed admin account password (optional)
	IsProd          bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),
		WebPort:         getEnv("WEB_PORT", "8081"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBName:          os.Getenv("DB_NAME"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       getEnv("JWT_ISSUER", "expense-tracker"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "expense-tracker-clients"),
		AccessTokenTTL:  hoursEnv("JWT_EXPIRE_HOURS", 2),
		RefreshTokenTTL: daysEnv("JWT_REFRESH_DAYS", 7),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:       os.Getenv("REDIS_PASS"),
		RedisDB:         redisDB,
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		IsProd:          os.Getenv("IS_PROD") == "true",
	}
}

// getEnv returns the value of the environment variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// hoursEnv reads an integer hour count from the environment
func hoursEnv(key string, fallback int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * time.Hour
	}
	return time.Duration(fallback) * time.Hour
}

// daysEnv reads an integer day count from the environment
func daysEnv(key string, fallback int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * 24 * time.Hour
	}
	return time.Duration(fallback) * 24 * time.Hour
}
