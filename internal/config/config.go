package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Skotchmaster/orbitdine/pkg/config"
	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	JWTSecret []byte
	TokenTTL  time.Duration
	CartTTL   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	AllowedOrigins []string
	EventBuffer    int

	BootstrapUsername string
	BootstrapPassword string
	BootstrapRole     string
}

func Load() (*Config, error) {
	config.LoadDotenv()

	cfg := &Config{
		ServiceName: config.EnvDefault("SERVICE_NAME", "orbitdine"),
		ServerPort:  config.EnvIntDefault("SERVER_PORT", 3000),
		LogLevel:    config.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:  config.EnvDurationDefault("TOKEN_TTL", tokens.DefaultTTL),
		CartTTL:   config.EnvDurationDefault("CART_TTL", 24*time.Hour),

		KafkaBrokers: config.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   config.EnvDefault("KAFKA_TOPIC", "order_events"),

		AllowedOrigins: config.CSV(os.Getenv("ALLOWED_ORIGINS")),
		EventBuffer:    config.EnvIntDefault("EVENT_BUFFER", 64),

		BootstrapUsername: os.Getenv("BOOTSTRAP_USERNAME"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_PASSWORD"),
		BootstrapRole:     config.EnvDefault("BOOTSTRAP_ROLE", "owner"),
	}

	var req config.Required
	req.String(cfg.DatabaseURL, "DATABASE_URL")
	req.String(cfg.RedisURL, "REDIS_URL")
	req.Bytes(cfg.JWTSecret, "JWT_SECRET")
	if err := req.Err(); err != nil {
		return nil, err
	}
	if cfg.TokenTTL < 0 {
		return nil, fmt.Errorf("TOKEN_TTL must not be negative, got %s", cfg.TokenTTL)
	}
	if cfg.CartTTL < 0 {
		return nil, fmt.Errorf("CART_TTL must not be negative, got %s", cfg.CartTTL)
	}

	return cfg, nil
}
