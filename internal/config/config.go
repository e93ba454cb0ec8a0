package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth. Tokens are issued by the identity service; we only verify them.
	JWTSecret   string
	AdminAPIKey string

	Forecast ForecastConfig

	// Rule-set file used by the admin CLI
	RulesetPath string
}

// ForecastConfig tunes the forecasting pipeline and its cache.
type ForecastConfig struct {
	CacheTTL            time.Duration
	ComputeTimeout      time.Duration
	HistoryDays         int
	MinHistory          int
	MaxHorizonDays      int
	HighDailyExpense    float64
	DefaultConfidence   float64
	ConfidenceImpactCap float64
}

// DefaultForecastConfig returns the tuning used when nothing is configured.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		CacheTTL:            6 * time.Hour,
		ComputeTimeout:      30 * time.Second,
		HistoryDays:         90,
		MinHistory:          10,
		MaxHorizonDays:      365,
		HighDailyExpense:    100000,
		DefaultConfidence:   0.95,
		ConfidenceImpactCap: 0.5,
	}
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	defaults := DefaultForecastConfig()
	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "campusfin"),
		DBPassword: getEnv("DB_PASSWORD", "campusfin"),
		DBName:     getEnv("DB_NAME", "campusfin"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:   getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		Forecast: ForecastConfig{
			CacheTTL:            getDuration("FORECAST_CACHE_TTL", defaults.CacheTTL),
			ComputeTimeout:      getDuration("FORECAST_COMPUTE_TIMEOUT", defaults.ComputeTimeout),
			HistoryDays:         getInt("FORECAST_HISTORY_DAYS", defaults.HistoryDays),
			MinHistory:          getInt("FORECAST_MIN_HISTORY", defaults.MinHistory),
			MaxHorizonDays:      getInt("FORECAST_MAX_HORIZON_DAYS", defaults.MaxHorizonDays),
			HighDailyExpense:    getFloat("INSIGHT_HIGH_DAILY_EXPENSE", defaults.HighDailyExpense),
			DefaultConfidence:   getFloat("FORECAST_DEFAULT_CONFIDENCE", defaults.DefaultConfidence),
			ConfidenceImpactCap: defaults.ConfidenceImpactCap,
		},

		RulesetPath: getEnv("RULESET_PATH", "configs/default_rules.toml"),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
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
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}
