package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Engine      EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ConnString builds a lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// TTLSeconds bounds how long a cached projection series stays valid.
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

// EngineConfig carries the calculation tolerances and the per-asset-type
// default annual returns (percent). The defaults preserve the historical
// hardcoded values; overriding them changes behavior for every portfolio.
type EngineConfig struct {
	// InitializerMismatchTolerance is the relative tolerance between a
	// caller-supplied starting total and the computed asset sum before
	// the initializer logs a mismatch warning.
	InitializerMismatchTolerance float64 `mapstructure:"initializer_mismatch_tolerance"`
	// ReallocationSumTolerance is the allowed deviation of a
	// reallocation's fractions from 1.0 before the event is skipped.
	ReallocationSumTolerance float64 `mapstructure:"reallocation_sum_tolerance"`
	// DefaultAnnualReturns maps asset type (lowercase) to default annual
	// return percent, used when an asset has no manual override.
	DefaultAnnualReturns map[string]float64 `mapstructure:"default_annual_returns"`
}

// Load reads configuration from .env (if present), environment variables
// and optional config.yaml, applying defaults for everything unset.
func Load() (*Config, error) {
	// .env is optional; ignore the error when the file is absent.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment. Used by tests and as a baseline for the
// engine tolerances.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "portfolio")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_seconds", 300)

	v.SetDefault("auth.api_token", "dev-token")

	v.SetDefault("engine.initializer_mismatch_tolerance", 0.01)
	v.SetDefault("engine.reallocation_sum_tolerance", 0.001)
	v.SetDefault("engine.default_annual_returns", map[string]float64{
		"stock":       7.0,
		"etf":         7.0,
		"bond":        3.0,
		"cash":        0.5,
		"crypto":      15.0,
		"real_estate": 4.0,
		"commodity":   2.0,
	})
}
