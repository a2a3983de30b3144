package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port           string        `env:"PORT" default:"3000"`
	PostgresURI    string        `env:"POSTGRESQL_URI"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" default:"10"`
	JWTSecret      string        `env:"JWT_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL" default:"24h"`
	SessionStore   string        `env:"SESSION_STORE" default:"memory"`
	RedisURL       string        `env:"REDIS_URL"`
	CookieName     string        `env:"COOKIE_NAME" default:"todo_session"`
	CookieSecure   bool          `env:"COOKIE_SECURE" default:"false"`
	BcryptCost     int           `env:"BCRYPT_COST" default:"10"`
	CORSOrigins    string        `env:"CORS_ORIGINS" default:"*"`
	MQTTURL        string        `env:"MQTT_URL"`
	MQTTPrefix     string        `env:"MQTT_TOPIC_PREFIX" default:"todo"`
	LogLevel       string        `env:"LOG_LEVEL" default:"info"`
	LogFormat      string        `env:"LOG_FORMAT" default:"json"`
	SwaggerEnabled bool          `env:"SWAGGER_ENABLED" default:"true"`
}

// LoadENV loads .env into the process environment if the file exists.
func LoadENV() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads .env and the environment and validates the result.
func Load() (*Config, error) {
	if err := LoadENV(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.PostgresURI == "" {
		return errors.New("you must set your 'POSTGRESQL_URI' environmental variable")
	}
	if len(cfg.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	switch cfg.SessionStore {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or redis, got %q", cfg.SessionStore)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DBMaxOpenConns)
	}
	return nil
}

// AllowedOrigins returns CORS_ORIGINS in the comma-separated form fiber expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
