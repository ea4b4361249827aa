package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBase        string
	Port           string
	PublicBaseURL  string
	RequestTimeout time.Duration

	// Risk buckets: score < RiskLowThreshold is Low, score >= RiskHighThreshold is High.
	RiskLowThreshold  float64
	RiskHighThreshold float64
	VerdictRulesPath  string

	RedisUrl       string
	StatusCacheTTL time.Duration

	DbUrl                string
	ShareTTLDays         int
	ShareCleanupSchedule string

	SessionTTL time.Duration

	AdminToken    string
	TelegramToken string
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		APIBase:              getEnvOrDefault("API_BASE", "http://localhost:3000"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		PublicBaseURL:        os.Getenv("PUBLIC_BASE_URL"),
		VerdictRulesPath:     os.Getenv("VERDICT_RULES_PATH"),
		RedisUrl:             os.Getenv("REDIS_URL"),
		DbUrl:                os.Getenv("DB_URL"),
		ShareCleanupSchedule: getEnvOrDefault("SHARE_CLEANUP_SCHEDULE", "0 * * * *"),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.StatusCacheTTL, err = getDuration("STATUS_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RiskLowThreshold, err = getFloat("RISK_LOW_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.RiskHighThreshold, err = getFloat("RISK_HIGH_THRESHOLD", 0.7); err != nil {
		return nil, err
	}
	if cfg.ShareTTLDays, err = getInt("SHARE_TTL_DAYS", 30); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.RiskLowThreshold <= 0 || c.RiskHighThreshold > 1 || c.RiskLowThreshold >= c.RiskHighThreshold {
		return fmt.Errorf("risk thresholds must satisfy 0 < low < high <= 1, got low=%v high=%v",
			c.RiskLowThreshold, c.RiskHighThreshold)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	if c.ShareTTLDays <= 0 {
		return fmt.Errorf("SHARE_TTL_DAYS must be positive, got %d", c.ShareTTLDays)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
