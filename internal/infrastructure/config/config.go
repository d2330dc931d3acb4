package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET, required"`
	JWTIssuer        string        `env:"JWT_ISSUER"`
	ExternalIDPrefix string        `env:"EXTERNAL_ID_PREFIX, default=user_"`
	TokenTTL         time.Duration `env:"TOKEN_TTL, default=24h"`
}

type StorageConfig struct {
	PublicBaseURL string        `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`
	UploadURLTTL  time.Duration `env:"UPLOAD_URL_TTL,  default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=community"`
}

type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB,       default=0"`
	SendDedupTTL time.Duration `env:"SEND_DEDUP_TTL, default=24h"`
}

type RealtimeConfig struct {
	Workers int `env:"REALTIME_WORKERS, default=8"`
	// Fanout is "redis" to share events across instances through pub/sub,
	// or "local" to deliver only to sockets on this instance.
	Fanout string `env:"REALTIME_FANOUT, default=redis"`
	// OriginPatterns lists extra hosts allowed to open websockets, e.g.
	// "app.example.com,*.example.dev". Same-origin is always allowed.
	OriginPatterns []string `env:"WS_ORIGIN_PATTERNS"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig. Variables already set in the environment
// win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Realtime.Fanout {
	case "redis", "local":
	default:
		return fmt.Errorf("config: REALTIME_FANOUT must be redis or local, got %q", c.Realtime.Fanout)
	}
	if c.Realtime.Workers <= 0 {
		return fmt.Errorf("config: REALTIME_WORKERS must be positive")
	}
	c.Storage.PublicBaseURL = strings.TrimRight(c.Storage.PublicBaseURL, "/")
	return nil
}
