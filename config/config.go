package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Verifier  VerifierConfig  `mapstructure:"verifier"`
	Model     ModelConfig     `mapstructure:"model"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// MatchingConfig holds matching engine configuration
type MatchingConfig struct {
	Concurrency        int  `mapstructure:"concurrency"`
	EnableDebugLogging bool `mapstructure:"debug"`
	WholeWordPlurals   bool `mapstructure:"whole_word_plurals"`
}

// VerifierConfig selects where ambiguous matches are verified: in process
// ("local") or through a remote verify-product-match endpoint ("remote").
type VerifierConfig struct {
	Mode              string        `mapstructure:"mode"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"rate"`
	Burst             int           `mapstructure:"burst"`
	Retries           int           `mapstructure:"retries"`
}

// ModelConfig holds semantic model configuration
type ModelConfig struct {
	Provider    string        `mapstructure:"provider"` // "heuristic" or "openai"
	APIKey      string        `mapstructure:"api_key"`
	Name        string        `mapstructure:"name"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MatchAt     float64       `mapstructure:"match_at"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	Type        string `mapstructure:"type"` // "memory" or "postgres"
	DatabaseURL string `mapstructure:"database_url"`
	FilePath    string `mapstructure:"file_path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dishbook/")

	// DISHBOOK_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("DISHBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}

	if err := validate(&config); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &config, nil
}

// LoadEnvFile loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadEnvFile() error {
	return loadEnvFile()
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return errors.Wrap(err, "error loading .env file")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("matching.concurrency", 1)
	v.SetDefault("matching.debug", false)
	v.SetDefault("matching.whole_word_plurals", false)

	// Verifier defaults
	v.SetDefault("verifier.mode", "local")
	v.SetDefault("verifier.base_url", "")
	v.SetDefault("verifier.timeout", "10s")
	v.SetDefault("verifier.rate", 5.0)
	v.SetDefault("verifier.burst", 10)
	v.SetDefault("verifier.retries", 0)

	// Model defaults
	v.SetDefault("model.provider", "heuristic")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.temperature", 0.1)
	v.SetDefault("model.max_tokens", 200)
	v.SetDefault("model.timeout", "15s")
	v.SetDefault("model.match_at", 0.85)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Catalog defaults
	v.SetDefault("catalog.type", "memory")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.file_path", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return errors.Newf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return errors.New("Redis URL is required when cache type is 'redis'")
	}

	if config.Catalog.Type != "memory" && config.Catalog.Type != "postgres" {
		return errors.Newf("catalog type must be 'memory' or 'postgres', got: %s", config.Catalog.Type)
	}
	if config.Catalog.Type == "postgres" && config.Catalog.DatabaseURL == "" {
		return errors.New("database URL is required when catalog type is 'postgres' (set DISHBOOK_CATALOG_DATABASE_URL)")
	}

	switch config.Verifier.Mode {
	case "local":
	case "remote":
		if config.Verifier.BaseURL == "" {
			return errors.New("verifier base URL is required when verifier mode is 'remote'")
		}
	case "off":
	default:
		return errors.Newf("verifier mode must be 'local', 'remote' or 'off', got: %s", config.Verifier.Mode)
	}

	switch config.Model.Provider {
	case "heuristic":
	case "openai":
		if config.Model.APIKey == "" {
			return errors.New("model API key is required for provider 'openai' (set DISHBOOK_MODEL_API_KEY)")
		}
	default:
		return errors.Newf("model provider must be 'heuristic' or 'openai', got: %s", config.Model.Provider)
	}

	if config.Matching.Concurrency < 1 {
		return errors.Newf("matching concurrency must be at least 1, got: %d", config.Matching.Concurrency)
	}

	return nil
}
