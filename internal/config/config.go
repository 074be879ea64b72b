package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	CalendarCacheTTL time.Duration
	MutationRateMax  int
	MutationRateWin  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SREPORT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "School Report API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("calendar.cache_ttl", "10m")
	v.SetDefault("mutation.rate_max", 30)
	v.SetDefault("mutation.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("calendar.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid calendar cache ttl: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("mutation.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid mutation rate window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		CalendarCacheTTL: ttl,
		MutationRateMax:  v.GetInt("mutation.rate_max"),
		MutationRateWin:  window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MutationRateMax <= 0 {
		cfg.MutationRateMax = 30
	}

	return cfg, nil
}
