package config

import (
	"time"

	"github.com/spf13/viper"
)

type WebServerConfig struct {
	Port            string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ShortenerConfig struct {
	MaxCodeLength int
	SuffixLength  int
}

type CacheConfig struct {
	TTL time.Duration
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             float64
}

type Config struct {
	WebServer WebServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Shortener ShortenerConfig
	Cache     CacheConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from the environment. Every knob has a default
// except DATABASE_DSN, which the caller must check.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("READ_TIMEOUT_SECONDS", 5)
	v.SetDefault("WRITE_TIMEOUT_SECONDS", 10)
	v.SetDefault("IDLE_TIMEOUT_SECONDS", 120)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MAX_CODE_LENGTH", 10)
	v.SetDefault("RANDOM_SUFFIX_LENGTH", 4)
	v.SetDefault("CACHE_TTL_SECONDS", 3600)
	v.SetDefault("ADMIN", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 10.0)

	return Config{
		WebServer: WebServerConfig{
			Port:            v.GetString("PORT"),
			BaseURL:         v.GetString("BASE_URL"),
			ReadTimeout:     time.Duration(v.GetInt("READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout:    time.Duration(v.GetInt("WRITE_TIMEOUT_SECONDS")) * time.Second,
			IdleTimeout:     time.Duration(v.GetInt("IDLE_TIMEOUT_SECONDS")) * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			DSN: v.GetString("DATABASE_DSN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Shortener: ShortenerConfig{
			MaxCodeLength: v.GetInt("MAX_CODE_LENGTH"),
			SuffixLength:  v.GetInt("RANDOM_SUFFIX_LENGTH"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
		Admin: AdminConfig{
			Username:  v.GetString("ADMIN"),
			Password:  v.GetString("ADMIN_PASSWORD"),
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  time.Duration(v.GetInt("ADMIN_TOKEN_TTL_MINUTES")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetFloat64("RATE_LIMIT_BURST"),
		},
	}
}
