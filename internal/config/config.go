package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting of the storefront API.
// Values come from the process environment, optionally seeded by a .env file.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// --- Database ---
	DBDSN             string        `envconfig:"DB_DSN" required:"true"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`

	// --- Cache ---
	RedisURL string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	// --- HTTP ---
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"10"`

	// --- Admin ---
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`

	// --- Cart ---
	CartTTL           time.Duration `envconfig:"CART_TTL" default:"720h"`
	CartSweepInterval time.Duration `envconfig:"CART_SWEEP_INTERVAL" default:"1h"`

	// --- Images ---
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	PublicBaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	S3Bucket      string `envconfig:"S3_BUCKET"`
	S3Prefix      string `envconfig:"S3_PREFIX" default:"products/"`
	S3Region      string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT"`
	S3PublicURL   string `envconfig:"S3_PUBLIC_URL"`

	// --- Mail ---
	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	MailFrom string `envconfig:"MAIL_FROM" default:"orders@greens.local"`

	// --- Assistant ---
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DBDSN) == "" {
		return errors.New("DB_DSN must not be empty")
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("CART_TTL must be positive, got %s", c.CartTTL)
	}
	if c.CartSweepInterval <= 0 {
		return fmt.Errorf("CART_SWEEP_INTERVAL must be positive, got %s", c.CartSweepInterval)
	}
	for i, o := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSuffix(strings.TrimSpace(o), "/")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) CacheEnabled() bool { return c.RedisURL != "" }

func (c *Config) AdminEnabled() bool { return c.AdminPasswordHash != "" && c.JWTSecret != "" }

func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }

func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

func (c *Config) AssistantEnabled() bool { return c.GeminiAPIKey != "" }
