package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config читается из окружения, .env используется только для локальной разработки
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// BUS_MODE выбирает реализацию fan-out: redis для мультипроцессного
	// деплоя, local для одного процесса и тестов
	BusMode string `envconfig:"BUS_MODE" default:"redis"`

	StreamMaxLen    int64         `envconfig:"STREAM_MAXLEN" default:"5000"`
	ThrottleMaxMsgs int           `envconfig:"THROTTLE_MAX_MESSAGES" default:"10"`
	ThrottleWindow  time.Duration `envconfig:"THROTTLE_WINDOW" default:"60s"`

	// Начальный суперпользователь, создается при старте если задан
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"root"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg(".env not found, using environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
