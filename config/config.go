package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// LLM providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort      string
	ServerHost      string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LogLevel        string

	// Store configuration
	StoreDriver string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	MongoURL    string

	// Redis configuration
	RedisURL           string
	GenerateRateLimit  int
	GenerateRateWindow time.Duration
	AuthRateLimit      float64
	AuthRateBurst      int

	// JWT configuration
	JWTSecret     string
	JWTExpiration time.Duration
	// EphemeralJWTSecret is set when JWTSecret was generated at startup;
	// tokens then stop verifying after a restart.
	EphemeralJWTSecret bool

	// LLM configuration
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMAPIURL   string
	LLMTimeout  time.Duration

	// Payment configuration
	StripeAPIKey        string
	StripeWebhookSecret string
	PaymentTimeout      time.Duration
	PaymentCurrency     string

	// Plans
	FreeRecipesLimit int
	UnlimitedPrice   float64
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	l := &loader{}
	cfg := &Config{Environment: GetEnvironment()}

	cfg.ServerHost = l.str("SERVER_HOST", "")
	cfg.ServerPort = l.str("SERVER_PORT", "8001")
	cfg.ShutdownTimeout = l.duration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.CORSOrigins = splitList(l.str("CORS_ORIGINS", "*"))
	cfg.LogLevel = l.str("LOG_LEVEL", "info")

	cfg.StoreDriver = strings.ToLower(l.str("STORE_DRIVER", DriverPostgres))
	cfg.DatabaseURL = l.str("DATABASE_URL", "")
	cfg.DBHost = l.str("DB_HOST", "localhost")
	cfg.DBPort = l.str("DB_PORT", "5432")
	cfg.DBUser = l.str("DB_USER", "postgres")
	cfg.DBPassword = l.str("DB_PASSWORD", "")
	cfg.DBName = l.str("DB_NAME", "smart_cooking")
	cfg.DBSSLMode = l.str("DB_SSL_MODE", "disable")
	cfg.SQLitePath = l.str("SQLITE_PATH", "smartcooking.db")
	cfg.MongoURL = l.str("MONGO_URL", "")

	cfg.RedisURL = l.str("REDIS_URL", "")
	cfg.GenerateRateLimit = l.integer("GENERATE_RATE_LIMIT", 10)
	cfg.GenerateRateWindow = l.duration("GENERATE_RATE_WINDOW", time.Minute)
	cfg.AuthRateLimit = l.float("AUTH_RATE_LIMIT", 1)
	cfg.AuthRateBurst = l.integer("AUTH_RATE_BURST", 5)

	cfg.JWTSecret = l.str("JWT_SECRET", "")
	if cfg.JWTSecret == "" && cfg.Environment.Local() {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.EphemeralJWTSecret = true
	}
	cfg.JWTExpiration = l.duration("JWT_EXPIRATION", 7*24*time.Hour)

	cfg.LLMProvider = strings.ToLower(l.str("LLM_PROVIDER", ProviderGemini))
	cfg.LLMAPIKey = l.str("LLM_API_KEY", l.str("GEMINI_API_KEY", ""))
	cfg.LLMModel = l.str("LLM_MODEL", defaultModel(cfg.LLMProvider))
	cfg.LLMAPIURL = l.str("LLM_API_URL", "https://api.deepseek.com/v1/chat/completions")
	cfg.LLMTimeout = l.duration("LLM_TIMEOUT", 60*time.Second)

	cfg.StripeAPIKey = l.str("STRIPE_API_KEY", "")
	cfg.StripeWebhookSecret = l.str("STRIPE_WEBHOOK_SECRET", "")
	cfg.PaymentTimeout = l.duration("PAYMENT_TIMEOUT", 20*time.Second)
	cfg.PaymentCurrency = strings.ToLower(l.str("PAYMENT_CURRENCY", "eur"))

	cfg.FreeRecipesLimit = l.integer("FREE_RECIPES_LIMIT", 50)
	cfg.UnlimitedPrice = l.float("UNLIMITED_PRICE", 2.99)

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", joinValidation(l.errs))
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PostgresDSN returns DATABASE_URL or a DSN assembled from the DB_* settings
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "deepseek-chat"
	}
	return "gemini-3-flash-preview"
}

// loader reads keys from the environment, then from Docker secrets, and
// collects parse failures instead of stopping at the first one.
type loader struct {
	errs []ValidationError
}

func (l *loader) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value := readSecret(strings.ToLower(key)); value != "" {
		return value, true
	}
	return "", false
}

func (l *loader) str(key, def string) string {
	if value, ok := l.lookup(key); ok {
		return value
	}
	return def
}

func (l *loader) integer(key string, def int) int {
	value, ok := l.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.errs = append(l.errs, ValidationError{Field: key, Message: "must be an integer"})
		return def
	}
	return n
}

func (l *loader) float(key string, def float64) float64 {
	value, ok := l.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		l.errs = append(l.errs, ValidationError{Field: key, Message: "must be a number"})
		return def
	}
	return f
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	value, ok := l.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.errs = append(l.errs, ValidationError{Field: key, Message: "must be a duration such as 30s or 168h"})
		return def
	}
	return d
}

// readSecret reads a Docker secret from the secrets directory
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
