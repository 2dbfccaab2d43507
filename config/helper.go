package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"pizzeria-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// PickupDisplayName is used unless the zone table names the pickup zone itself.
const PickupDisplayName = "Abholung"

// Pickup returns the pickup defaults zone sources fall back to.
func (c *Config) Pickup() domain.PickupConfig {
	return domain.PickupConfig{
		Sentinel:          c.PickupSentinel,
		DisplayName:       PickupDisplayName,
		MinimumOrderValue: c.PickupMinimumOrder,
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.ZoneSource {
	case ZoneSourceFile:
	case ZoneSourcePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_DSN is required when ZONE_SOURCE=%s", ZoneSourcePostgres)
		}
	case ZoneSourceR2:
		if c.R2AccountID == "" || c.R2BucketName == "" {
			return fmt.Errorf("R2_ACCOUNT_ID and R2_BUCKET_NAME are required when ZONE_SOURCE=%s", ZoneSourceR2)
		}
	default:
		return fmt.Errorf("unknown ZONE_SOURCE %q", c.ZoneSource)
	}

	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.PickupMinimumOrder.IsNegative() {
		return fmt.Errorf("PICKUP_MINIMUM_ORDER must not be negative")
	}
	if c.CacheTariffTTL <= 0 || c.CacheValidationTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Admin endpoints are not safe in production.")
	}
	return nil
}

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := toInt32(value); err == nil {
			return i
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func toInt32(s string) (int32, error) {
	// simple parsing
	var i int32
	_, err := fmt.Sscanf(s, "%d", &i)
	return i, err
}

func getDecimalEnv(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		log.Printf("Invalid decimal for %s, using fallback", key)
	}
	return fallback
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
