package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	ZoneSourceFile     = "file"
	ZoneSourcePostgres = "postgres"
	ZoneSourceR2       = "r2"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
	JWTSecret     string
	// Zone Table
	ZoneSource         string
	ZoneTableFile      string // empty means the embedded default table
	ZoneTableObjectKey string
	PickupSentinel     string
	PickupMinimumOrder decimal.Decimal
	ZoneReloadTimeout  time.Duration
	// DB Config
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	DBAutoMigrate     bool
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2Timeout         time.Duration
	// Cache
	CacheBackend       string
	CacheTariffTTL     time.Duration
	CacheValidationTTL time.Duration
	CacheMaxEntries    int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
	// Proxies whose X-Forwarded-For / X-Real-IP headers are believed (IPs or CIDRs)
	TrustedProxies []string
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, plain env vars everywhere else
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration from the process environment without loading any file.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),

		ZoneSource:         strings.ToLower(getEnv("ZONE_SOURCE", ZoneSourceFile)),
		ZoneTableFile:      getEnv("ZONE_TABLE_FILE", ""),
		ZoneTableObjectKey: getEnv("ZONE_TABLE_OBJECT_KEY", "config/delivery-zones.yaml"),
		PickupSentinel:     getEnv("PICKUP_SENTINEL", "pickup"),
		// Single source for the pickup minimum; the zone table may override it.
		PickupMinimumOrder: getDecimalEnv("PICKUP_MINIMUM_ORDER", decimal.Zero),
		ZoneReloadTimeout:  getDurationEnv("ZONE_RELOAD_TIMEOUT", 10*time.Second),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 5),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 1),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),
		DBAutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", false),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Timeout:         getDurationEnv("R2_TIMEOUT", 10*time.Second),

		// Cache defaults: 30m for both namespaces, 500 entries each
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		CacheTariffTTL:     getDurationEnv("CACHE_TARIFF_TTL", 30*time.Minute),
		CacheValidationTTL: getDurationEnv("CACHE_VALIDATION_TTL", 30*time.Minute),
		CacheMaxEntries:    getIntEnv("CACHE_MAX_ENTRIES", 500),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
		TrustedProxies: getListEnv("TRUSTED_PROXIES"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid bool for %s, using fallback", key)
	}
	return fallback
}
