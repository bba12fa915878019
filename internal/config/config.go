// Package config handles configuration loading for the booking service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the booking service.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SessionSecret string
	SessionTTL    time.Duration

	Port           string
	Environment    string
	AllowedOrigins []string
	CookieDomain   string
	CookieSecure   bool
	SwaggerHost    string

	RabbitMQURL      string
	RabbitMQExchange string

	EnforceRouteCapacity bool
	ReservedAdminID      int64
	AdminUsername        string
	AdminPassword        string
	PasswordHasher       string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// env collects lookups so Load can report every missing variable at once.
type env struct {
	missing []string
	invalid []error
}

func (e *env) required(key string) string {
	value := os.Getenv(key)
	if value == "" {
		e.missing = append(e.missing, key)
	}
	return value
}

func (e *env) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *env) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		e.invalid = append(e.invalid, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultValue
	}
	return d
}

func (e *env) boolean(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.invalid = append(e.invalid, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultValue
	}
	return b
}

func (e *env) id(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		e.invalid = append(e.invalid, fmt.Errorf("%s: invalid id %q", key, value))
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		DBHost:     e.required("DB_HOST"),
		DBPort:     e.required("DB_PORT"),
		DBUser:     e.required("DB_USER"),
		DBPassword: e.required("DB_PASSWORD"),
		DBName:     e.required("DB_NAME"),

		RedisHost:     e.required("REDIS_HOST"),
		RedisPort:     e.required("REDIS_PORT"),
		RedisPassword: e.get("REDIS_PASSWORD", ""),

		SessionSecret: e.required("SESSION_SECRET"),
		SessionTTL:    e.duration("SESSION_TTL", 24*time.Hour),

		Port:           e.get("PORT", "8081"),
		Environment:    e.get("ENVIRONMENT", "development"),
		AllowedOrigins: splitList(e.get("ALLOWED_ORIGINS", "http://localhost:3000")),
		CookieDomain:   e.get("COOKIE_DOMAIN", ""),
		CookieSecure:   e.boolean("COOKIE_SECURE", false),
		SwaggerHost:    e.get("SWAGGER_HOST", ""),

		RabbitMQURL:      e.get("RABBITMQ_URL", ""),
		RabbitMQExchange: e.get("RABBITMQ_EXCHANGE", "trainease.bookings"),

		EnforceRouteCapacity: e.boolean("ENFORCE_ROUTE_CAPACITY", true),
		ReservedAdminID:      e.id("RESERVED_ADMIN_ID", 1),
		AdminUsername:        e.get("ADMIN_USERNAME", "admin"),
		AdminPassword:        e.get("ADMIN_PASSWORD", ""),
		PasswordHasher:       e.get("PASSWORD_HASHER", "bcrypt"),
	}

	var errs []error
	if len(e.missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(e.missing, ", ")))
	}
	errs = append(errs, e.invalid...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}
