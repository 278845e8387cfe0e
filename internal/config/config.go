package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/toothpick/loyalty/internal/services"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	AdminTokenSecret string

	// Notifications
	TelegramBotToken     string
	NotificationsEnabled bool

	// Application
	AppEnv   string
	LogLevel string

	// Loyalty policy
	PurchaseRateDivisor int64
	ReviewPoints        int64
	WelcomePoints       int64
	ReferralPoints      int64
	MinRedemption       int64
	PointsToCurrency    float64
	MaxDiscountPercent  float64
}

func LoadConfig() (*Config, error) {
	defaults := services.DefaultPolicy()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "loyalty"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "loyalty_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AdminTokenSecret: getEnv("ADMIN_TOKEN_SECRET", ""),

		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", false),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PurchaseRateDivisor: getEnvInt64("LOYALTY_PURCHASE_RATE_DIVISOR", defaults.PurchaseRateDivisor),
		ReviewPoints:        getEnvInt64("LOYALTY_REVIEW_POINTS", defaults.ReviewPoints),
		WelcomePoints:       getEnvInt64("LOYALTY_WELCOME_POINTS", defaults.WelcomePoints),
		ReferralPoints:      getEnvInt64("LOYALTY_REFERRAL_POINTS", defaults.ReferralPoints),
		MinRedemption:       getEnvInt64("LOYALTY_MIN_REDEMPTION", defaults.MinRedemption),
		PointsToCurrency:    getEnvFloat("LOYALTY_POINTS_TO_CURRENCY_RATE", defaults.PointsToCurrency),
		MaxDiscountPercent:  getEnvFloat("LOYALTY_MAX_DISCOUNT_PERCENT", defaults.MaxDiscountPercent),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.AdminTokenSecret == "" {
		return fmt.Errorf("ADMIN_TOKEN_SECRET is required")
	}
	if len(c.AdminTokenSecret) < 32 {
		return fmt.Errorf("ADMIN_TOKEN_SECRET must be at least 32 characters")
	}
	if c.NotificationsEnabled && c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when notifications are enabled")
	}
	if c.PurchaseRateDivisor <= 0 {
		return fmt.Errorf("LOYALTY_PURCHASE_RATE_DIVISOR must be positive")
	}
	if c.MinRedemption <= 0 {
		return fmt.Errorf("LOYALTY_MIN_REDEMPTION must be positive")
	}
	if c.PointsToCurrency <= 0 {
		return fmt.Errorf("LOYALTY_POINTS_TO_CURRENCY_RATE must be positive")
	}
	if c.MaxDiscountPercent <= 0 || c.MaxDiscountPercent > 1 {
		return fmt.Errorf("LOYALTY_MAX_DISCOUNT_PERCENT must be a fraction in (0, 1]")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.AdminTokenSecret == "change_this_admin_secret_minimum_32_chars" {
		return fmt.Errorf("ADMIN_TOKEN_SECRET must be changed from default in production")
	}

	return nil
}

// Policy materializes the injected constants struct handed to each engine.
func (c *Config) Policy() services.Policy {
	return services.Policy{
		PurchaseRateDivisor: c.PurchaseRateDivisor,
		ReviewPoints:        c.ReviewPoints,
		WelcomePoints:       c.WelcomePoints,
		ReferralPoints:      c.ReferralPoints,
		MinRedemption:       c.MinRedemption,
		PointsToCurrency:    c.PointsToCurrency,
		MaxDiscountPercent:  c.MaxDiscountPercent,
	}
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
