package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `validate:"required"`
	LogLevel    string `validate:"omitempty,oneof=trace debug info warn error"`
	HTTPAddr    string `validate:"required"`
	MetricsAddr string

	APIBase    string        `validate:"required,url"`
	APIKey     string
	APIRPS     int           `validate:"min=1,max=1000"`
	APIRetries int           `validate:"min=0,max=10"`
	APITimeout time.Duration `validate:"min=1s"`

	RedisAddr string // empty disables the cache
	RedisDB   int    `validate:"min=0"`
	RedisPass string
	CacheTTL  time.Duration `validate:"min=0"`

	DefaultLang     string `validate:"len=3,alpha"`
	DefaultCurrency string `validate:"len=3,alpha"`
	CardPageSize    int    `validate:"min=1,max=100"`
	TablePageSize   int    `validate:"min=1,max=100"`
}

// Load reads the environment, after applying .env files when present, and
// validates the result.
func Load(envFiles ...string) (Config, error) {
	// a missing .env is normal outside local development
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		log.Debug().Err(err).Strs("files", envFiles).Msg("env files not loaded")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    strings.ToLower(env("LOG_LEVEL", "info")),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		APIBase:    env("TED_API_BASE_URL", "http://localhost:8000"),
		APIKey:     env("TED_API_KEY", ""),
		APIRPS:     atoi("TED_API_RPS", 5),
		APIRetries: atoi("TED_API_RETRIES", 0),
		APITimeout: time.Duration(atoi("TED_API_TIMEOUT_SECONDS", 20)) * time.Second,

		RedisAddr: env("REDIS_ADDR", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,

		DefaultLang:     strings.ToLower(env("DEFAULT_LANG", "eng")),
		DefaultCurrency: strings.ToUpper(env("DEFAULT_CURRENCY", "EUR")),
		CardPageSize:    atoi("CARD_PAGE_SIZE", 12),
		TablePageSize:   atoi("TABLE_PAGE_SIZE", 10),
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, response cache disabled")
	}
	return c, nil
}

// CacheEnabled reports whether a Redis cache should be wired.
func (c Config) CacheEnabled() bool { return c.RedisAddr != "" && c.CacheTTL > 0 }

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
