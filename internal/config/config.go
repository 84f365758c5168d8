package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting lists
	"time"    // For token lifetimes

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // Application port
	DBDriver        string        // mysql, postgres or sqlite
	DBDSN           string        // Full DSN, overrides the parts below when set
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	JWTSecret       string        // JWT secret key
	AccessTokenTTL  time.Duration // Access token lifetime
	RefreshTokenTTL time.Duration // Refresh token lifetime
	RedisAddr       string        // Redis server address, empty disables caching and the relay
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	IsProd          bool          // Is production environment
	LogLevel        string        // logrus level name
	UploadDir       string        // Local image directory
	CloudinaryName  string        // Cloudinary cloud name
	CloudinaryKey   string        // Cloudinary API key
	CloudinarySec   string        // Cloudinary API secret
	CORSOrigins     []string      // Allowed origins
	AutoMigrate     bool          // Run schema migration on server start
	AdminUsername   string        // Seeded admin username
	AdminPassword   string        // Seeded admin password
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:         getEnv("APP_PORT", "8000"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:           os.Getenv("DB_DSN"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          getEnv("DB_HOST", "127.0.0.1"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          getEnv("DB_NAME", "home_eats"),
		JWTSecret:       getEnv("JWT_SECRET", "super-secret-change-me"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPass:       os.Getenv("REDIS_PASS"),
		RedisDB:         redisDB,
		IsProd:          os.Getenv("IS_PROD") == "true",
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		CloudinaryName:  os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:   os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySec:   os.Getenv("CLOUDINARY_API_SECRET"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		AutoMigrate:     os.Getenv("AUTO_MIGRATE") == "true",
		AdminUsername:   os.Getenv("ADMIN_USERNAME"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "postgres":
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + port + " sslmode=disable"
	case "sqlite":
		return c.DBName + ".db"
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
	}
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryKey != "" && c.CloudinarySec != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
