package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AGRILEDGER_SERVER_PORT.
const EnvPrefix = "agriledger"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rateLimit" split_words:"true"`
	Cache     CacheConfig     `yaml:"cache"`
	Events    EventsConfig    `yaml:"events"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Features  FeaturesConfig  `yaml:"features"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	CertFile        string        `yaml:"certFile"        split_words:"true"`
	KeyFile         string        `yaml:"keyFile"         split_words:"true"`
	ReadTimeout     time.Duration `yaml:"readTimeout"     split_words:"true"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"    split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

// DatabaseConfig selects and tunes the store.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	Path         string        `yaml:"path"` // sqlite file
	DSN          string        `yaml:"dsn"`  // postgres connection string
	MaxOpenConns int           `yaml:"maxOpenConns" split_words:"true"`
	BusyTimeout  time.Duration `yaml:"busyTimeout"  split_words:"true"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes
	MaxRequestBodySize int64 `yaml:"maxRequestBodySize" split_words:"true"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `yaml:"allowedOrigins" split_words:"true"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	Rate    int  `yaml:"rate"`
	Window  int  `yaml:"window"` // in seconds
}

// CacheConfig configures the read-model cache. Backend is memory, redis or none.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redisAddr"     split_words:"true"`
	RedisPassword string        `yaml:"redisPassword" split_words:"true"`
	RedisDB       int           `yaml:"redisDB"       envconfig:"REDIS_DB"`
	TTL           time.Duration `yaml:"ttl"`
}

// EventsConfig configures post-commit event delivery.
type EventsConfig struct {
	Enabled bool        `yaml:"enabled"`
	Log     bool        `yaml:"log"`
	Kafka   KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	Partitions int32    `yaml:"partitions"`
}

// TracingConfig configures the Jaeger exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName" split_words:"true"`
	Environment string `yaml:"environment"`
}

type FeaturesConfig struct {
	BadgeAwards bool `yaml:"badgeAwards" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "./agri_ledger.db",
			BusyTimeout: 5 * time.Second,
		},
		Security: SecurityConfig{
			MaxRequestBodySize: 1 << 20,
			AllowedOrigins:     "*",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    100,
			Window:  60,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     time.Minute,
		},
		Events: EventsConfig{
			Enabled: true,
			Log:     true,
			Kafka: KafkaConfig{
				Topic:      "agri-ledger.events",
				Partitions: 3,
			},
		},
		Tracing: TracingConfig{
			ServiceName: "agri-ledger",
			Environment: "development",
		},
		Features: FeaturesConfig{
			BadgeAwards: true,
		},
	}
}

// LoadConfig loads the defaults, then the YAML file if given, then environment variables.
// Environment variables take precedence over config file values.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if (c.Server.CertFile == "") != (c.Server.KeyFile == "") {
		return errors.New("server cert file and key file must be set together")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return errors.New("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("rate limit window must be positive")
		}
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache redis address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if len(c.Events.Kafka.Brokers) > 0 && c.Events.Kafka.Topic == "" {
		return errors.New("events kafka topic is required when brokers are set")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("tracing endpoint is required when tracing is enabled")
	}
	return nil
}
