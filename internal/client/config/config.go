package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
)

// Config holds runtime settings for one of the two client apps.
type Config struct {
	Role models.Role `validate:"oneof=owner driver"`

	ServerURL      string        `env:"SERVER_URL" validate:"required,url"`
	APIPrefix      string        `env:"API_PREFIX" validate:"required,startswith=/"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`

	DBPath            string        `env:"DB_PATH" validate:"required"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" validate:"gt=0"`
	ValidateOnStartup bool          `env:"VALIDATE_ON_STARTUP"`

	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL" validate:"gt=0"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=text json"`

	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" validate:"gt=0"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" validate:"gt=0"`

	TracingEnabled bool   `env:"TRACING_ENABLED"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" validate:"required_if=TracingEnabled true"`
}

// LoadDefaults populates c with defaults for role.
func (c *Config) LoadDefaults(role models.Role) {
	c.Role = role
	c.ServerURL = "http://127.0.0.1:8000"
	c.APIPrefix = "/api/v1"
	c.RequestTimeout = 10 * time.Second
	c.DBPath = string(role) + ".db"
	c.StoreTimeout = 5 * time.Second
	c.ValidateOnStartup = true
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.BreakerFailureRatio = 0.6
	c.BreakerMinRequests = 5
	c.BreakerOpenTimeout = 30 * time.Second
	c.OTLPEndpoint = "localhost:4318"
}

// Load builds the configuration for role from args (without the program
// name) and the process environment.
func Load(role models.Role, args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults(role)

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := models.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args.
func LoadConfig(role models.Role) (*Config, error) {
	return Load(role, os.Args[1:])
}
