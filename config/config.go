// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "FAMILYHUB_"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
	Rewards  RewardsConfig  `yaml:"rewards"`
	Memories MemoriesConfig `yaml:"memories"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host" validate:"required"`
	Port         int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"min=0"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" validate:"required"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required,startswith=/"`
}

// OpenAPIConfig configures the generated API document and Swagger UI.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RewardsConfig configures coin awards.
type RewardsConfig struct {
	// MemoryCoins is awarded for each new memory. Zero disables the award.
	MemoryCoins int `yaml:"memory_coins" validate:"min=0"`
}

// MemoriesConfig configures memory creation.
type MemoriesConfig struct {
	// Partners is stored on every new memory.
	Partners []string `yaml:"partners" validate:"min=1,dive,required"`
}

// explicitSettings records which defaulted-true or non-zero settings the
// file set explicitly, so an explicit false or zero is kept.
type explicitSettings struct {
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
	OpenAPI struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"openapi"`
	Rewards struct {
		MemoryCoins *int `yaml:"memory_coins"`
	} `yaml:"rewards"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML bytes, then applies environment
// overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var set explicitSettings
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Metrics.Enabled = boolOr(set.Metrics.Enabled, true)
	cfg.OpenAPI.Enabled = boolOr(set.OpenAPI.Enabled, true)
	cfg.Rewards.MemoryCoins = intOr(set.Rewards.MemoryCoins, DefaultMemoryCoins)

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	FAMILYHUB_SERVER_HOST       - Server host (default: 0.0.0.0)
//	FAMILYHUB_SERVER_PORT       - Server port (default: 8080)
//	FAMILYHUB_DATABASE_DSN      - SQLite path (default: familyhub.db)
//	FAMILYHUB_LOG_LEVEL         - debug, info, warn, error (default: info)
//	FAMILYHUB_LOG_FORMAT        - json or console (default: json)
//	FAMILYHUB_METRICS_ENABLED   - Enable /metrics (default: true)
//	FAMILYHUB_OPENAPI_ENABLED   - Enable /openapi.json and /swagger (default: true)
//	FAMILYHUB_REWARDS_MEMORY_COINS - Coins per memory (default: 10)
//	FAMILYHUB_MEMORIES_PARTNERS - Comma-separated partner list (default: partner_a)
func LoadFromEnv() (*Config, error) {
	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
		Rewards: RewardsConfig{MemoryCoins: DefaultMemoryCoins},
	}
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists, otherwise environment only.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies FAMILYHUB_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := env("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := env("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := env("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := env("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := env("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := env("METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
	if v := env("OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}

	if v := env("REWARDS_MEMORY_COINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rewards.MemoryCoins = n
		}
	}
	if v := env("MEMORIES_PARTNERS"); v != "" {
		var partners []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				partners = append(partners, p)
			}
		}
		cfg.Memories.Partners = partners
	}
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Defaults.
const (
	DefaultMemoryCoins = 10
	DefaultDSN         = "familyhub.db"
)

// DefaultPartners is used when memories.partners is not configured.
var DefaultPartners = []string{"partner_a"}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = DefaultDSN
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if len(cfg.Memories.Partners) == 0 {
		cfg.Memories.Partners = append([]string(nil), DefaultPartners...)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its field rules.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	// Namespace is "Config.server.port"; drop the root type.
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", name, map[string]string{"min": ">=", "max": "<="}[fe.Tag()], fe.Param(), fe.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// ToYAML renders cfg for display.
func ToYAML(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
