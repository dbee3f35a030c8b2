package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	// Portal auth
	PortalJWTSecret string

	// CORS
	CORSAllowedOrigins []string

	// Scheduling policy
	ClinicTimezone      string
	WeekdayOpen         string // HH:MM lower bound Mon-Fri
	WeekdayClose        string // HH:MM upper bound Mon-Fri
	SaturdayOpen        string // HH:MM lower bound Saturday
	SaturdayClose       string // HH:MM upper bound Saturday
	DefaultDurationMins int
	DefaultHorizonDays  int
	MaxHorizonDays      int

	// Redis (change bus + availability cache)
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	AvailabilityCache  bool
	AvailabilityCached time.Duration

	// Email notifications
	IdentityAPIURL    string // contact lookups for outbound mail
	EmailProvider     string // "sendgrid", "ses" or "" (disabled)
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AWSRegion         string
	SESFromEmail      string

	// HTTP server timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		PortalJWTSecret: getEnv("PORTAL_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		ClinicTimezone:      getEnv("CLINIC_TZ", "Local"),
		WeekdayOpen:         getEnv("WEEKDAY_OPEN", "08:00"),
		WeekdayClose:        getEnv("WEEKDAY_CLOSE", "19:00"),
		SaturdayOpen:        getEnv("SATURDAY_OPEN", "08:00"),
		SaturdayClose:       getEnv("SATURDAY_CLOSE", "14:00"),
		DefaultDurationMins: getEnvAsInt("DEFAULT_DURATION_MINS", 30),
		DefaultHorizonDays:  getEnvAsInt("DEFAULT_HORIZON_DAYS", 30),
		MaxHorizonDays:      getEnvAsInt("MAX_HORIZON_DAYS", 90),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		AvailabilityCache:  getEnvAsBool("AVAILABILITY_CACHE", true),
		AvailabilityCached: getEnvAsDuration("AVAILABILITY_CACHE_TTL", 5*time.Minute),

		IdentityAPIURL:    getEnv("IDENTITY_API_URL", ""),
		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ClinicDesk"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
