// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${ENV} expansion
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	dbURL := cfg.Storage.DatabaseURL
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Payman        PaymanConfig        `yaml:"payman"`
	Matching      MatchingConfig      `yaml:"matching"`
	Reminders     RemindersConfig     `yaml:"reminders"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration.
// mongodb:// and mongodb+srv:// URLs select MongoDB; sqlite:// URLs and
// bare paths select SQLite.
type StorageConfig struct {
	DatabaseURL  string `yaml:"database_url"`
	DatabaseName string `yaml:"database_name"`
}

// APIConfig holds HTTP server configuration
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// PaymanConfig holds payment provider configuration
type PaymanConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APISecret    string        `yaml:"api_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retry_max"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"`
}

// MatchingConfig holds matching engine thresholds
type MatchingConfig struct {
	AmountTolerance    float64  `yaml:"amount_tolerance"`
	MinSimilarity      float64  `yaml:"min_similarity"`
	StrongSimilarity   float64  `yaml:"strong_similarity"`
	FallbackMinOverlap float64  `yaml:"fallback_min_overlap"`
	UnresolvedMarkers  []string `yaml:"unresolved_markers"`
}

// RemindersConfig holds reminder windows
type RemindersConfig struct {
	DaysBefore   int      `yaml:"days_before"`
	DaysAfter    int      `yaml:"days_after"`
	FollowUpDays int      `yaml:"follow_up_days"`
	Channels     []string `yaml:"channels"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${PAYMAN_API_SECRET})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DatabaseURL:  getEnv("DATABASE_URL", os.Getenv("MONGODB_URI")),
			DatabaseName: getEnv("DATABASE_NAME", "rentlink"),
		},
		API: APIConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
			RateLimitRPS:   getEnvFloat("API_RATE_LIMIT_RPS", 0),
			RateLimitBurst: getEnvInt("API_RATE_LIMIT_BURST", 0),
		},
		Payman: PaymanConfig{
			BaseURL:      getEnv("PAYMAN_BASE_URL", os.Getenv("API_BASE_URL")),
			APISecret:    os.Getenv("PAYMAN_API_SECRET"),
			Timeout:      getEnvDuration("PAYMAN_TIMEOUT", 0),
			RetryMax:     getEnvInt("PAYMAN_RETRY_MAX", 2),
			RateLimitRPS: getEnvFloat("PAYMAN_RATE_LIMIT_RPS", 0),
		},
		Reminders: RemindersConfig{
			DaysBefore:   getEnvInt("REMINDER_DAYS_BEFORE", 0),
			DaysAfter:    getEnvInt("REMINDER_DAYS_AFTER", 0),
			FollowUpDays: getEnvInt("REMINDER_FOLLOW_UP_DAYS", 0),
			Channels:     splitList(os.Getenv("REMINDER_CHANNELS")),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "maven"),
			},
			Tracing: TracingConfig{
				Enabled:     getEnv("OTEL_TRACING_ENABLED", "") == "true",
				ServiceName: getEnv("OTEL_SERVICE_NAME", "rentlink"),
				Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Storage.DatabaseName == "" {
		c.Storage.DatabaseName = "rentlink"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.API.RateLimitRPS == 0 {
		c.API.RateLimitRPS = 20
	}
	if c.API.RateLimitBurst == 0 {
		c.API.RateLimitBurst = 40
	}
	if c.Payman.Timeout == 0 {
		c.Payman.Timeout = 15 * time.Second
	}
	if c.Payman.RateLimitRPS == 0 {
		c.Payman.RateLimitRPS = 5
	}

	m := &c.Matching
	if m.AmountTolerance == 0 {
		m.AmountTolerance = 0.01
	}
	if m.MinSimilarity == 0 {
		m.MinSimilarity = 0.60
	}
	if m.StrongSimilarity == 0 {
		m.StrongSimilarity = 0.85
	}
	if m.FallbackMinOverlap == 0 {
		m.FallbackMinOverlap = 0.50
	}
	if len(m.UnresolvedMarkers) == 0 {
		m.UnresolvedMarkers = []string{"UNKN", "UNKNOWN", "UNRESOLVED", "UNIDENTIFIED"}
	}

	r := &c.Reminders
	if r.DaysBefore == 0 {
		r.DaysBefore = 7
	}
	if r.DaysAfter == 0 {
		r.DaysAfter = 1
	}
	if r.FollowUpDays == 0 {
		r.FollowUpDays = 3
	}
	if len(r.Channels) == 0 {
		r.Channels = []string{"Email"}
	}

	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "maven"
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = "rentlink"
	}
}

// Validate reports missing required settings and out-of-range thresholds.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
		errs = append(errs, errors.New("storage.database_url (DATABASE_URL or MONGODB_URI) is required"))
	}
	if strings.TrimSpace(c.Payman.BaseURL) == "" {
		errs = append(errs, errors.New("payman.base_url (PAYMAN_BASE_URL or API_BASE_URL) is required"))
	}
	if c.Matching.MinSimilarity > c.Matching.StrongSimilarity {
		errs = append(errs, fmt.Errorf("matching.min_similarity (%.2f) must not exceed matching.strong_similarity (%.2f)",
			c.Matching.MinSimilarity, c.Matching.StrongSimilarity))
	}
	if c.Reminders.DaysBefore < 0 || c.Reminders.DaysAfter < 0 || c.Reminders.FollowUpDays < 0 {
		errs = append(errs, errors.New("reminder windows must not be negative"))
	}
	return errors.Join(errs...)
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Payman.APISecret, "PAYMAN_API_SECRET")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	if configValue != "" {
		return configValue
	}
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}
	return ""
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if result, err := time.ParseDuration(val); err == nil {
			return result
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
