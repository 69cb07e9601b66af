// Package config handles loading and validation of storefront configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"gopkg.in/yaml.v3"
)

// Config holds all storefront configuration.
// Environment determines whether credentials load from env vars (development)
// or Secret Manager (production).
type Config struct {
	Environment string `json:"environment" yaml:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level" yaml:"log_level"`     // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string `json:"gcp_project" yaml:"gcp_project"`
	StoreID    string `json:"store_id" yaml:"store_id"`

	// StateDir is where local cart and navigation state persist.
	StateDir string `json:"state_dir" yaml:"state_dir"`

	// MinimumOrderValue in paise. Orders below it are blocked client-side.
	MinimumOrderValue int64 `json:"minimum_order_value" yaml:"minimum_order_value"`

	// RefreshInterval between periodic remote cart re-fetches.
	RefreshInterval time.Duration `json:"-" yaml:"-"`

	// Store-specific settings (loaded from secrets in production)
	Store StoreConfig `json:"store" yaml:"store"`
}

// StoreConfig contains backend and payment gateway settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	APIKey       string `json:"api_key" yaml:"api_key"`
	APISecret    string `json:"api_secret" yaml:"api_secret"`
	PaymentURL   string `json:"payment_url" yaml:"payment_url"`
	CallbackURL  string `json:"callback_url" yaml:"callback_url"`
	ContactEmail string `json:"contact_email" yaml:"contact_email"`
	StoreName    string `json:"store_name,omitempty" yaml:"store_name"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) then ENV vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Environment:       envOrDefault("ENVIRONMENT", "development"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		GCPProject:        os.Getenv("GCP_PROJECT"),
		StoreID:           os.Getenv("STORE_ID"),
		StateDir:          envOrDefault("STATE_DIR", defaultStateDir()),
		MinimumOrderValue: envInt64("MINIMUM_ORDER_VALUE", 100000),
		RefreshInterval:   envDuration("REFRESH_INTERVAL", 30*time.Second),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON or YAML file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Config         `yaml:",inline"`
		RefreshSeconds int `json:"refresh_seconds" yaml:"refresh_seconds"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fileConfig)
	default:
		err = json.Unmarshal(data, &fileConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := fileConfig.Config
	cfg.Environment = withDefault(cfg.Environment, "development")
	cfg.LogLevel = withDefault(cfg.LogLevel, "info")
	cfg.StateDir = withDefault(cfg.StateDir, defaultStateDir())
	if cfg.MinimumOrderValue == 0 {
		cfg.MinimumOrderValue = 100000
	}
	if fileConfig.RefreshSeconds > 0 {
		cfg.RefreshInterval = time.Duration(fileConfig.RefreshSeconds) * time.Second
	} else {
		cfg.RefreshInterval = 30 * time.Second
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		BaseURL:      os.Getenv("STORE_BASE_URL"),
		APIKey:       os.Getenv("STORE_API_KEY"),
		APISecret:    os.Getenv("STORE_API_SECRET"),
		PaymentURL:   os.Getenv("PAYMENT_URL"),
		CallbackURL:  os.Getenv("PAYMENT_CALLBACK_URL"),
		ContactEmail: os.Getenv("CONTACT_EMAIL"),
		StoreName:    os.Getenv("STORE_NAME"),
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := url.Parse(c.Store.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.Store.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.Store.APISecret == "" {
		return fmt.Errorf("api_secret is required")
	}
	if c.Store.PaymentURL != "" {
		if _, err := url.Parse(c.Store.PaymentURL); err != nil {
			return fmt.Errorf("invalid payment_url: %w", err)
		}
	}
	return nil
}

// defaultStateDir is where local state lands when STATE_DIR is unset.
func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shopfront")
	}
	return ".shopfront"
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envInt64 parses an integer environment variable, falling back on the
// default when unset or malformed.
func envInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

// envDuration parses a duration environment variable ("45s", "2m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
