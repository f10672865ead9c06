package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	JWTSecret   string `env:"JWT_SECRET,   required"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:5173"`
	// BaseURL is the public origin reset links are built against.
	BaseURL string `env:"BASE_URL, default=http://localhost:8080"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Mail     MailConfig
	Security SecurityConfig
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,    default=elections"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MailConfig struct {
	Domain string `env:"MAILGUN_DOMAIN"`
	APIKey string `env:"MAILGUN_API_KEY"`
	Sender string `env:"MAIL_SENDER, default=no-reply@localhost"`
	// Workers sizes the outbound dispatcher pool. Zero keeps the default.
	Workers int `env:"MAIL_WORKERS, default=0"`
}

type SecurityConfig struct {
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS, default=5"`
	LockDuration     time.Duration `env:"LOCK_DURATION,      default=1h"`
	LockoutTokenTTL  time.Duration `env:"LOCKOUT_TOKEN_TTL,  default=1h"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL,    default=24h"`
	SessionTokenTTL  time.Duration `env:"SESSION_TOKEN_TTL,  default=168h"`
	BcryptCost       int           `env:"BCRYPT_COST,        default=10"`
	OpTimeout        time.Duration `env:"OP_TIMEOUT,         default=5s"`
	ResetCooldown    time.Duration `env:"RESET_COOLDOWN,     default=1m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
