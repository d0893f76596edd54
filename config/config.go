// Package config loads the account service configuration from a YAML file
// layered with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv
const (
	EnvSecret         = "APP_SECRET"
	EnvDebug          = "APP_DEBUG"
	EnvDatabaseDriver = "DATABASE_DRIVER"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvKafkaBrokers   = "KAFKA_BROKERS"
	EnvKafkaTopic     = "KAFKA_TOPIC"
	EnvActivityTopic  = "KAFKA_ACTIVITY_TOPIC"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete service configuration
type Config struct {
	Debug    bool           `yaml:"debug"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// AuthConfig configures token signing. Lifetimes are in hours.
type AuthConfig struct {
	SigningKey              string `yaml:"signing_key"`
	TokenExpiration         int    `yaml:"token_expiration"`
	ExtendedTokenDuration   int    `yaml:"extended_token_duration"`
	ActivationTokenDuration int    `yaml:"activation_token_duration"`
}

// DatabaseConfig configures the user store
type DatabaseConfig struct {
	// Driver is sqlite or postgres
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// KafkaConfig configures registration notices. Without brokers notices
// are only logged. Activity records are published to ActivityTopic when set.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ActivityTopic string   `yaml:"activity_topic"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			TokenExpiration:         24,
			ExtendedTokenDuration:   24 * 30,
			ActivationTokenDuration: 72,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "file:account.db?cache=shared",
		},
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Metrics: true,
		},
		Kafka: KafkaConfig{
			Topic: "user_events",
		},
	}
}

// Load reads path (optional), then .env, then the environment
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides values with the environment variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSecret); ok {
		c.Auth.SigningKey = v
	}
	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v, ok := lookup(EnvDatabaseDriver); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvKafkaBrokers); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup(EnvKafkaTopic); ok && v != "" {
		c.Kafka.Topic = v
	}
	if v, ok := lookup(EnvActivityTopic); ok {
		c.Kafka.ActivityTopic = v
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required (%s)", EnvSecret)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

func (c *Config) GetExtendedTokenDuration() int {
	return c.Auth.ExtendedTokenDuration
}

func (c *Config) GetActivationTokenDuration() int {
	return c.Auth.ActivationTokenDuration
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
