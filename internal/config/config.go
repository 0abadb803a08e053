package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Store     Store     `mapstructure:"store"`
	Generator Generator `mapstructure:"generator"`
	Logger    Logger    `mapstructure:"logger"`
	Client    Client    `mapstructure:"client"`
}

// Server holds the configuration for the dashboard web server.
type Server struct {
	Port            int           `mapstructure:"port"`
	StaticDir       string        `mapstructure:"static_dir"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Store selects and configures the trade store backend.
// Backend is one of memory, file, sqlite, postgres or mysql.
type Store struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
	Path    string `mapstructure:"path"`
}

// Generator holds the configuration for the synthetic trade generator.
type Generator struct {
	Count   int           `mapstructure:"count"`
	Seed    int64         `mapstructure:"seed"`
	Spacing time.Duration `mapstructure:"spacing"`
	Symbol  string        `mapstructure:"symbol"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Client holds the configuration for the dashboard API client.
type Client struct {
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	// Renderer assets ship separately; an empty dir disables static serving.
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.dsn", "trades.db")
	v.SetDefault("store.path", "trades.json")

	v.SetDefault("generator.count", 1000)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("generator.spacing", time.Hour)
	v.SetDefault("generator.symbol", "BTCUSDT")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("client.base_url", "http://localhost:3000")
	v.SetDefault("client.rate_limit", 5)       // requests per second
	v.SetDefault("client.rate_limit_burst", 1) // burst size
	v.SetDefault("client.timeout", 5*time.Second)
}

// LoadConfig reads configuration from file or environment variables.
// A missing config.yml is not an error: defaults and the environment still apply.
func LoadConfig(path string) (config Config, err error) {
	// Values from .env never override variables already set in the environment.
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if config.Generator.Count < 0 {
		err = fmt.Errorf("generator.count must not be negative, got %d", config.Generator.Count)
	}
	return
}
