package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv         string
	Port           string
	OriginURL      string
	StorageDriver  string
	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	MigrationsPath string
	RedisURL       string
	RedisAddr      string
	RedisPassword  string
	CartTTL        time.Duration

	SessionSecret string
	SessionTTL    time.Duration

	CommerceStoreDomain     string
	CommerceStorefrontToken string
	CommerceAPIVersion      string
	SyncTimeout             time.Duration

	FreeShippingThreshold decimal.Decimal
	StandardShippingFee   decimal.Decimal
	ExpressShippingFee    decimal.Decimal
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	return &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("APP_PORT", getEnv("PORT", "8082")),
		OriginURL:      getEnv("ORIGIN_URL", ""),
		StorageDriver:  getEnv("STORAGE_DRIVER", "memory"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5454"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "crystal_shop"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "database/migration"),
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		CartTTL:        getDuration("CART_TTL", 30*24*time.Hour),

		SessionSecret: getEnv("SESSION_SECRET", "secret"),
		SessionTTL:    getDuration("SESSION_TTL", 30*24*time.Hour),

		CommerceStoreDomain:     getEnv("COMMERCE_STORE_DOMAIN", ""),
		CommerceStorefrontToken: getEnv("COMMERCE_STOREFRONT_TOKEN", ""),
		CommerceAPIVersion:      getEnv("COMMERCE_API_VERSION", "2024-01"),
		SyncTimeout:             getDuration("SYNC_TIMEOUT", 10*time.Second),

		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", "99"),
		StandardShippingFee:   getDecimal("STANDARD_SHIPPING_FEE", "9"),
		ExpressShippingFee:    getDecimal("EXPRESS_SHIPPING_FEE", "15"),
	}
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the individual DB_* values.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid duration for %s=%q, using %s", key, raw, defaultValue)
	return defaultValue
}

func getDecimal(key, defaultValue string) decimal.Decimal {
	raw := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		log.Printf("Warning: invalid amount for %s=%q, using %s", key, raw, defaultValue)
		return decimal.RequireFromString(defaultValue)
	}
	return d
}
