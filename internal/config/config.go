package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	devJWTSecret     = "dev-jwt-secret"
	devSessionSecret = "dev-session-secret"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	SessionSecret string
	TokenTTL      time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	TimelineSize int

	// WSAllowedOrigin restricts live feed handshakes when set.
	WSAllowedOrigin string
}

// Load reads .env.local or .env when present, then the environment, then
// an optional config.yaml.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("SESSION_SECRET", devSessionSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RATE_LIMIT_MAX", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("TIMELINE_SIZE", 100)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:             v.GetString("APP_ENV"),
		Port:            v.GetString("PORT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisURL:        v.GetString("REDIS_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		TokenTTL:        parseDuration(v.GetString("TOKEN_TTL"), 24*time.Hour),
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow: parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		TimelineSize:    v.GetInt("TIMELINE_SIZE"),
		WSAllowedOrigin: v.GetString("WS_ALLOWED_ORIGIN"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.IsProduction() && (c.JWTSecret == devJWTSecret || c.SessionSecret == devSessionSecret) {
		return errors.New("JWT_SECRET and SESSION_SECRET must be set in production")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if c.TimelineSize <= 0 {
		return errors.New("TIMELINE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }
func (c *Config) IsTest() bool       { return c.Env == EnvTest }

func (c *Config) Addr() string { return ":" + c.Port }

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
