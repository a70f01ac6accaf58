package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
type AppConfig struct {
	AppPort string
	GinMode string

	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Storage
	UploadDir string
	StaticDir string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Redis cache
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int

	RateLimitPerMinute int
	AllowedOrigins     []string
}

var cfg AppConfig
var loaded bool

// Load reads the application configuration from environment variables,
// falling back to defaults. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	cfg = AppConfig{
		AppPort:            getEnv("APP_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "release"),
		DatabaseURI:        getEnv("DATABASE_URI", ""),
		DBHost:             getEnv("DB_HOST", "127.0.0.1"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "image_user"),
		DBPassword:         getEnv("DB_PASS", ""),
		DBName:             getEnv("DB_NAME", "image_db"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploaded_images"),
		StaticDir:          getEnv("STATIC_DIR", "static"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPath:            getEnv("LOG_PATH", ""),
		LogMaxSizeMB:       getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:      getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:      getEnvInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:        getEnv("LOG_COMPRESS", "") == "true",
		RedisHost:          getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:          getEnvInt("REDIS_PORT", 6379),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CacheTTLSeconds:    getEnvInt("CACHE_TTL_SECONDS", 60),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value for %s: %v", key, err)
	}
	return i
}

func getEnvList(key string, defaults []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaults
	}
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaults
	}
	return items
}
