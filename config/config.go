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

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Stores    []StoreConfig   `mapstructure:"stores"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error (default: determined by environment)
}

// ScraperConfig holds settings shared by every outbound store request
type ScraperConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
}

// StoreConfig describes one storefront. The order of Config.Stores is the merge order.
type StoreConfig struct {
	Key        string `mapstructure:"key"`
	Name       string `mapstructure:"name"`
	Kind       string `mapstructure:"kind"` // "vtex" or "markup"
	BaseURL    string `mapstructure:"base_url"`
	SearchPath string `mapstructure:"search_path"`
	MaxResults int    `mapstructure:"max_results"` // 0 = unlimited
	Enabled    bool   `mapstructure:"enabled"`
}

// LLMConfig holds the OpenAI-compatible selection model settings
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// OptimizerConfig holds cart optimizer tuning
type OptimizerConfig struct {
	SurchargeMin float64 `mapstructure:"surcharge_min"`
	SurchargeMax float64 `mapstructure:"surcharge_max"`
	LenientMatch bool    `mapstructure:"lenient_match"`
}

// CacheConfig holds search response cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EnabledStores returns the enabled stores in configuration order
func (c *Config) EnabledStores() []StoreConfig {
	var out []StoreConfig
	for _, s := range c.Stores {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartscout/")

	// Environment variable settings
	v.SetEnvPrefix("CARTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already present in the environment are never overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "")

	// Scraper defaults
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; CartScout/1.0)")
	v.SetDefault("scraper.rate_per_second", 2.0)
	v.SetDefault("scraper.burst", 4)
	v.SetDefault("scraper.max_body_bytes", 5<<20)

	// Stores, in merge order
	v.SetDefault("stores", DefaultStores())

	// LLM defaults; api_key has an empty default so AutomaticEnv can bind it
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "60s")

	// Optimizer defaults
	v.SetDefault("optimizer.surcharge_min", 20.0)
	v.SetDefault("optimizer.surcharge_max", 40.0)
	v.SetDefault("optimizer.lenient_match", false)

	// Cache defaults
	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")
}

// DefaultStores returns the built-in storefront list
func DefaultStores() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"key":         "jumbo",
			"name":        "Jumbo",
			"kind":        "vtex",
			"base_url":    "https://www.jumbo.com.ar",
			"search_path": "/api/catalog_system/pub/products/search/?ft=%s",
			"max_results": 10,
			"enabled":     true,
		},
		{
			"key":         "coto",
			"name":        "Coto Digital",
			"kind":        "markup",
			"base_url":    "https://www.cotodigital3.com.ar",
			"search_path": "/sitios/cdigi/browse?Ntt=%s",
			"max_results": 0,
			"enabled":     true,
		},
		{
			"key":         "laanonima",
			"name":        "La Anónima",
			"kind":        "markup",
			"base_url":    "https://supermercado.laanonimaonline.com",
			"search_path": "/buscar?pag=1&clave=%s",
			"max_results": 10,
			"enabled":     true,
		},
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set CARTSCOUT_LLM_API_KEY)")
	}

	switch config.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive, got: %s", config.Scraper.Timeout)
	}

	if config.Optimizer.SurchargeMin <= 0 || config.Optimizer.SurchargeMax < config.Optimizer.SurchargeMin {
		return fmt.Errorf("surcharge range must satisfy 0 < min <= max, got: %.2f..%.2f",
			config.Optimizer.SurchargeMin, config.Optimizer.SurchargeMax)
	}

	seen := make(map[string]bool, len(config.Stores))
	for _, s := range config.Stores {
		if s.Key == "" {
			return fmt.Errorf("store key is required")
		}
		if seen[s.Key] {
			return fmt.Errorf("duplicate store key: %s", s.Key)
		}
		seen[s.Key] = true
		if s.Kind != "vtex" && s.Kind != "markup" {
			return fmt.Errorf("store %s: kind must be 'vtex' or 'markup', got: %s", s.Key, s.Kind)
		}
		if s.MaxResults < 0 {
			return fmt.Errorf("store %s: max_results must not be negative", s.Key)
		}
	}

	if len(config.EnabledStores()) == 0 {
		return fmt.Errorf("at least one store must be enabled")
	}

	return nil
}
