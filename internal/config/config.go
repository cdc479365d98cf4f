package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	HTTPCacheEnabled bool          `mapstructure:"HTTP_CACHE_ENABLED"`
	HTTPCacheTTL     time.Duration `mapstructure:"HTTP_CACHE_TTL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWKSURL   string `mapstructure:"JWKS_URL"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioRegion    string `mapstructure:"MINIO_REGION"`

	LowStockThreshold  int           `mapstructure:"LOW_STOCK_THRESHOLD"`
	LowStockInterval   time.Duration `mapstructure:"LOW_STOCK_INTERVAL"`
	CacheSweepInterval time.Duration `mapstructure:"CACHE_SWEEP_INTERVAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"DATABASE_URL":         "",
	"AUTO_MIGRATE":         false,
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"CATALOG_CACHE_TTL":    5 * time.Minute,
	"HTTP_CACHE_ENABLED":   false,
	"HTTP_CACHE_TTL":       300 * time.Second,
	"JWT_SECRET":           "",
	"JWKS_URL":             "",
	"MINIO_ENDPOINT":       "",
	"MINIO_ACCESS_KEY":     "",
	"MINIO_SECRET_KEY":     "",
	"MINIO_USE_SSL":        false,
	"MINIO_BUCKET":         "product-images",
	"MINIO_REGION":         "",
	"LOW_STOCK_THRESHOLD":  5,
	"LOW_STOCK_INTERVAL":   30 * time.Minute,
	"CACHE_SWEEP_INTERVAL": time.Hour,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
}

// Load reads an optional dotenv file, then the environment. Real environment
// variables take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	return cfg, nil
}

// StorageEnabled reports whether product images can be stored.
func (c *Config) StorageEnabled() bool {
	return c.MinioEndpoint != ""
}
