// Package config handles YAML configuration for Peili.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Cache      CacheConfig      `yaml:"cache"`
	Scope      ScopeConfig      `yaml:"scope"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Cost       CostConfig       `yaml:"cost"`
	API        APIConfig        `yaml:"api"`
	OTEL       OTELConfig       `yaml:"otel"`
	Log        LogConfig        `yaml:"log"`
}

// ProviderConfig holds remote management API settings.
type ProviderConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the remote call timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CacheConfig holds TTLs for the inventory and health caches.
type CacheConfig struct {
	InventoryTTLMinutes int `yaml:"inventory_ttl_minutes"`
	HealthTTLMinutes    int `yaml:"health_ttl_minutes"`
	ScopeSessionHours   int `yaml:"scope_session_hours"`
}

// InventoryTTL returns the inventory snapshot TTL.
func (c CacheConfig) InventoryTTL() time.Duration {
	return time.Duration(c.InventoryTTLMinutes) * time.Minute
}

// HealthTTL returns the health event snapshot TTL.
func (c CacheConfig) HealthTTL() time.Duration {
	return time.Duration(c.HealthTTLMinutes) * time.Minute
}

// ScopeSessionTTL returns the session memo TTL for resolved scopes.
func (c CacheConfig) ScopeSessionTTL() time.Duration {
	return time.Duration(c.ScopeSessionHours) * time.Hour
}

// ScopeConfig holds the persisted scope memo location.
type ScopeConfig struct {
	StorePath string `yaml:"store_path"`
}

// ComplianceConfig lists tag keys every resource should carry.
type ComplianceConfig struct {
	RequiredTags []string `yaml:"required_tags"`
}

// CostConfig allows overriding entries of the built-in price tables.
type CostConfig struct {
	DiskGBMonth       map[string]float64 `yaml:"disk_gb_month,omitempty"`
	PublicAddressFlat map[string]float64 `yaml:"public_address_flat,omitempty"`
	LoadBalancerFlat  map[string]float64 `yaml:"load_balancer_flat,omitempty"`
}

// APIConfig holds HTTP surface settings.
type APIConfig struct {
	Listen      string `yaml:"listen"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Insecure    bool          `yaml:"insecure"`
	ServiceName string        `yaml:"service_name"`
	Traces      TracesConfig  `yaml:"traces"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a config with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Provider.Endpoint == "" {
		cfg.Provider.Endpoint = "https://management.azure.com"
	}
	if cfg.Provider.APIVersion == "" {
		cfg.Provider.APIVersion = "2021-04-01"
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 30
	}
	if cfg.Cache.InventoryTTLMinutes == 0 {
		cfg.Cache.InventoryTTLMinutes = 30
	}
	if cfg.Cache.HealthTTLMinutes == 0 {
		cfg.Cache.HealthTTLMinutes = 15
	}
	if cfg.Cache.ScopeSessionHours == 0 {
		cfg.Cache.ScopeSessionHours = 24
	}
	if cfg.Scope.StorePath == "" {
		cfg.Scope.StorePath = defaultStorePath()
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = ":8480"
	}
	if cfg.API.MetricsAddr == "" {
		cfg.API.MetricsAddr = ":9090"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "peili"
	}
	if cfg.OTEL.Traces.SampleRate == 0 {
		cfg.OTEL.Traces.SampleRate = 1.0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".peili/scope.db"
	}
	return home + "/.peili/scope.db"
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider.TimeoutSeconds < 0 {
		return fmt.Errorf("provider: timeout_seconds must not be negative")
	}
	if c.Cache.InventoryTTLMinutes < 0 || c.Cache.HealthTTLMinutes < 0 {
		return fmt.Errorf("cache: TTLs must not be negative")
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	for _, prices := range []map[string]float64{c.Cost.DiskGBMonth, c.Cost.PublicAddressFlat, c.Cost.LoadBalancerFlat} {
		for sku, price := range prices {
			if price < 0 {
				return fmt.Errorf("cost: price for %s must not be negative", sku)
			}
		}
	}
	return nil
}
