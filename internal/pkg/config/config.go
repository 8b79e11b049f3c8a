package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string `env:"PORT,             default=8080"`
	Env             string `env:"ENV,              default=development"`
	LogLevel        string `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool   `env:"LOG_PRETTY,       default=false"`
	BodyLimit       string `env:"BODY_LIMIT,       default=10M"`
	ActivityWorkers int    `env:"ACTIVITY_WORKERS, default=4"`

	Auth        AuthConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Attachments AttachmentConfig
	Telemetry   TelemetryConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,  default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=campus_events"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AttachmentConfig struct {
	// Backend is "local" or "b2".
	Backend     string `env:"ATTACHMENT_BACKEND, default=local"`
	UploadDir   string `env:"UPLOAD_DIR,         default=./uploads"`
	B2AccountID string `env:"B2_ACCOUNT_ID"`
	B2AppKey    string `env:"B2_APP_KEY"`
	B2Bucket    string `env:"B2_BUCKET"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=campus-events"`
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads a .env file when present, then configuration from environment
// variables using go-envconfig. Real environment variables win over .env.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Attachments.Backend {
	case "local":
		if c.Attachments.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required for the local attachment backend")
		}
	case "b2":
		a := c.Attachments
		if a.B2AccountID == "" || a.B2AppKey == "" || a.B2Bucket == "" {
			return errors.New("B2_ACCOUNT_ID, B2_APP_KEY and B2_BUCKET are required for the b2 attachment backend")
		}
	default:
		return fmt.Errorf("ATTACHMENT_BACKEND must be local or b2, got %q", c.Attachments.Backend)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}
