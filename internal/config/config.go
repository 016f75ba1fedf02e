package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	SMTP     SMTPConfig
	Razorpay RazorpayConfig
	Binance  BinanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port       string
	Production bool
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// SMTPConfig holds email delivery settings for OTP codes
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// RazorpayConfig holds Razorpay payment gateway credentials
type RazorpayConfig struct {
	KeyID  string
	Secret string
}

// BinanceConfig holds Binance withdrawal API credentials
type BinanceConfig struct {
	APIKey    string
	SecretKey string
	BaseURL   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "rewards"),
		},
		Server: ServerConfig{
			Port:       getEnv("SERVER_PORT", "3000"),
			Production: getEnv("APP_ENV", "development") == "production",
		},
		App: AppConfig{
			JWTSecret: getEnv("SECRET_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASS", ""),
			From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
		},
		Razorpay: RazorpayConfig{
			KeyID:  getEnv("RAZORPAY_KEY_ID", ""),
			Secret: getEnv("RAZORPAY_SECRET", ""),
		},
		Binance: BinanceConfig{
			APIKey:    getEnv("BINANCE_API_KEY", ""),
			SecretKey: getEnv("BINANCE_SECRET_KEY", ""),
			BaseURL:   getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
