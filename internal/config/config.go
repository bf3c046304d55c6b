package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port        int
	DatabaseURL string

	JWTSecret   string
	AuthJWKSURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioPublicURL string

	OpenAIAPIKey string
	AIModels     []string
	AIRateLimit  int

	DefaultCurrency       string
	DashboardRates        map[string]float64
	DefaultTaxPercent     float64
	InvoiceNumberAttempts int
	OverdueSweepInterval  time.Duration

	AllowedOrigins []string
}

var defaultAIModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: could not load .env file: %v", err)
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AuthJWKSURL:     os.Getenv("AUTH_JWKS_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		MinioBucket:     getEnv("MINIO_BUCKET", "invoiceapp"),
		MinioPublicURL:  os.Getenv("MINIO_PUBLIC_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AIModels:        splitList(os.Getenv("AI_MODELS")),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "INR")),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
	}
	if len(cfg.AIModels) == 0 {
		cfg.AIModels = defaultAIModels
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AIRateLimit, err = getInt("AI_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.InvoiceNumberAttempts, err = getInt("INVOICE_NUMBER_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.DefaultTaxPercent, err = getFloat("DEFAULT_TAX_PERCENT", 18); err != nil {
		return nil, err
	}
	if cfg.OverdueSweepInterval, err = getDuration("OVERDUE_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.DashboardRates, err = parseRates(getEnv("DASHBOARD_RATES", "USD:83")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if c.DefaultTaxPercent < 0 || c.DefaultTaxPercent > 100 {
		return fmt.Errorf("DEFAULT_TAX_PERCENT must be between 0 and 100, got %v", c.DefaultTaxPercent)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRates reads a "USD:83,EUR:90" list of values in the default currency.
func parseRates(s string) (map[string]float64, error) {
	rates := make(map[string]float64)
	for _, part := range splitList(s) {
		code, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid DASHBOARD_RATES entry %q: expected CODE:RATE", part)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid DASHBOARD_RATES entry %q", part)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}
