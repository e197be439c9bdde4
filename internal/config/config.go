// Package config loads and exposes the engine's runtime settings.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds every tunable enumerated in the engine's external
// configuration contract. It is built once at startup and passed explicitly
// to constructors; nothing else in this module reads os.Getenv directly.
type Settings struct {
	// Server
	Port    string
	GinMode string

	// Auth
	JWTSecret string
	// AdminAPIKeyHash is a bcrypt hash (see auth.HashAdminKey); empty disables
	// the hot-reload admin endpoint entirely.
	AdminAPIKeyHash string

	// Database (broker config / client record store)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (cache fabric + rate-limit counters)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Upstream endpoints
	BorrowRateBaseURL    string
	VolatilityBaseURL    string
	EventCalendarBaseURL string
	BorrowRateAPIKey     string
	VolatilityAPIKey     string
	EventCalendarAPIKey  string

	// Calculation constants (decimal strings, parsed by callers)
	DaysInYear        int
	MinBorrowRate     string
	VolFactor         string
	EventFactor       string
	DefaultMarkupPct  string
	DefaultFeeFlat    string
	DefaultVolatility string

	// Rate limiting
	LimitStandard int
	LimitPremium  int

	// Circuit breaker
	CBFailureThreshold int
	CBSuccessThreshold int
	CBTimeoutSeconds   int

	// Retry
	RetryMaxAttempts    int
	RetryInitialWait    time.Duration
	RetryBackoffFactor  float64
	RetryMaxWait        time.Duration
	RetryJitterFraction float64

	// Cache TTLs (seconds)
	CacheTTLBorrowRate   int
	CacheTTLVolatility   int
	CacheTTLEventRisk    int
	CacheTTLBrokerConfig int
	CacheTTLCalculation  int
	CacheTTLMinRate      int
	CacheTTLRateLimit    int

	// Timeouts
	UpstreamTimeoutSeconds int
	RequestDeadlineSeconds int
}

// Load reads configuration from the environment, applying the engine's
// documented defaults. godotenv.Load optionally reads a local .env file — a
// missing file is not an error.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	return &Settings{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "locate_pricing"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BorrowRateBaseURL:    getEnv("SECLEND_API_BASE_URL", "https://api.seclend.example.com"),
		VolatilityBaseURL:    getEnv("MARKET_VOLATILITY_API_BASE_URL", "https://api.marketvolatility.example.com"),
		EventCalendarBaseURL: getEnv("EVENT_CALENDAR_API_BASE_URL", "https://api.eventcalendar.example.com"),
		BorrowRateAPIKey:     getEnv("SECLEND_API_KEY", ""),
		VolatilityAPIKey:     getEnv("MARKET_VOLATILITY_API_KEY", ""),
		EventCalendarAPIKey:  getEnv("EVENT_CALENDAR_API_KEY", ""),

		DaysInYear:        getEnvInt("DAYS_IN_YEAR", 365),
		MinBorrowRate:     getEnv("MIN_BORROW_RATE", "0.0001"),
		VolFactor:         getEnv("VOL_FACTOR", "0.01"),
		EventFactor:       getEnv("EVENT_FACTOR", "0.05"),
		DefaultMarkupPct:  getEnv("DEFAULT_MARKUP_PCT", "5.0"),
		DefaultFeeFlat:    getEnv("DEFAULT_FEE_FLAT", "25.0"),
		DefaultVolatility: getEnv("DEFAULT_VOLATILITY_INDEX", "20.0"),

		LimitStandard: getEnvInt("LIMIT_STANDARD", 60),
		LimitPremium:  getEnvInt("LIMIT_PREMIUM", 300),

		CBFailureThreshold: getEnvInt("CB_FAIL_THRESHOLD", 5),
		CBSuccessThreshold: getEnvInt("CB_SUCCESS_THRESHOLD", 3),
		CBTimeoutSeconds:   getEnvInt("CB_TIMEOUT_S", 60),

		RetryMaxAttempts:    getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialWait:    time.Duration(getEnvInt("RETRY_INITIAL_WAIT_MS", 100)) * time.Millisecond,
		RetryBackoffFactor:  getEnvFloat("RETRY_BACKOFF_FACTOR", 2.0),
		RetryMaxWait:        time.Duration(getEnvInt("RETRY_MAX_WAIT_MS", 30000)) * time.Millisecond,
		RetryJitterFraction: getEnvFloat("RETRY_JITTER_FRACTION", 0.1),

		CacheTTLBorrowRate:   getEnvInt("CACHE_TTL_BORROW_RATE", 300),
		CacheTTLVolatility:   getEnvInt("CACHE_TTL_VOLATILITY", 900),
		CacheTTLEventRisk:    getEnvInt("CACHE_TTL_EVENT_RISK", 3600),
		CacheTTLBrokerConfig: getEnvInt("CACHE_TTL_BROKER_CONFIG", 1800),
		CacheTTLCalculation:  getEnvInt("CACHE_TTL_CALCULATION", 60),
		CacheTTLMinRate:      getEnvInt("CACHE_TTL_MIN_RATE", 86400),
		CacheTTLRateLimit:    getEnvInt("CACHE_TTL_RATE_LIMIT", 60),

		UpstreamTimeoutSeconds: getEnvInt("UPSTREAM_TIMEOUT_S", 10),
		RequestDeadlineSeconds: getEnvInt("REQUEST_DEADLINE_S", 30),
	}, nil
}

// DBDSN builds the Postgres DSN used for the broker-config / client-record
// store and the optional audit persistence sink.
func (s *Settings) DBDSN() string {
	return "host=" + s.DBHost + " port=" + s.DBPort + " user=" + s.DBUser +
		" dbname=" + s.DBName + " password=" + s.DBPassword + " sslmode=" + s.DBSSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
