// Package config loads the voltmesh configuration from a YAML file, applies
// defaults for omitted fields and validates the result before any component
// is constructed from it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Beckn     BecknConfig     `yaml:"beckn"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Grid      GridConfig      `yaml:"grid"`
	Audit     AuditConfig     `yaml:"audit"`
	Notify    NotifyConfig    `yaml:"notify"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the data center's electrical envelope.
type SiteConfig struct {
	// MaxCapacityKW bounds the site's total electrical draw.
	MaxCapacityKW float64 `yaml:"max_capacity_kw"`
	// SeedSampleWorkloads populates the queue with demo jobs on startup.
	SeedSampleWorkloads int `yaml:"seed_sample_workloads"`
}

// BecknConfig describes the BAP side of the protocol client.
type BecknConfig struct {
	BaseURL        string `yaml:"base_url"`
	BapID          string `yaml:"bap_id"`
	BapURI         string `yaml:"bap_uri"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// SandboxFallback answers protocol calls locally when the network
	// endpoint is unreachable. Enabled by default.
	SandboxFallback *bool `yaml:"sandbox_fallback"`
}

// Timeout returns the protocol call timeout as a duration.
func (c BecknConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OptimizerConfig tunes the schedule optimizer.
type OptimizerConfig struct {
	CostWeight   float64 `yaml:"cost_weight"`
	CarbonWeight float64 `yaml:"carbon_weight"`
	// CarbonCapKg skips windows whose carbon exceeds the cap. Zero disables it.
	CarbonCapKg float64 `yaml:"carbon_cap_kg"`
}

// GridConfig describes the energy signal source.
type GridConfig struct {
	ForecastHorizonHours int `yaml:"forecast_horizon_hours"`
	// RedisAddr enables forecast caching when set (e.g. "localhost:6379").
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the forecast cache lifetime as a duration.
func (c GridConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AuditConfig selects the audit trail store.
type AuditConfig struct {
	// Driver is "memory" or "mysql".
	Driver string `yaml:"driver"`
	// DSN is the MySQL connection string, required for the mysql driver.
	DSN string `yaml:"dsn"`
}

// NotifyConfig enables order notifications over RabbitMQ when URL is set.
type NotifyConfig struct {
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
	Durable bool   `yaml:"durable"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// DemoSeed reseeds the queue with this many sample workloads before
	// each cycle run over the API. Set to 0 for a real workload queue.
	DemoSeed int `yaml:"demo_seed"`
}

// LoggingConfig describes log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Site: SiteConfig{
			MaxCapacityKW:       500,
			SeedSampleWorkloads: 3,
		},
		Beckn: BecknConfig{
			BaseURL:        "http://localhost:8081",
			BapID:          "voltmesh-agent",
			BapURI:         "http://voltmesh.example.com",
			TimeoutSeconds: 30,
		},
		Optimizer: OptimizerConfig{
			CostWeight:   0.4,
			CarbonWeight: 0.6,
		},
		Grid: GridConfig{
			ForecastHorizonHours: 24,
			CacheTTLSeconds:      300,
		},
		Audit: AuditConfig{
			Driver: "memory",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			DemoSeed: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// SandboxFallbackEnabled resolves the tri-state flag, defaulting to true.
func (c BecknConfig) SandboxFallbackEnabled() bool {
	if c.SandboxFallback == nil {
		return true
	}
	return *c.SandboxFallback
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Site.MaxCapacityKW <= 0 {
		return fmt.Errorf("site.max_capacity_kw must be positive, got %v", c.Site.MaxCapacityKW)
	}
	if c.Beckn.BaseURL == "" {
		return fmt.Errorf("beckn.base_url must not be empty")
	}
	if c.Beckn.TimeoutSeconds <= 0 {
		return fmt.Errorf("beckn.timeout_seconds must be positive, got %d", c.Beckn.TimeoutSeconds)
	}
	if c.Optimizer.CostWeight < 0 || c.Optimizer.CarbonWeight < 0 {
		return fmt.Errorf("optimizer weights must not be negative")
	}
	if c.Optimizer.CostWeight+c.Optimizer.CarbonWeight == 0 {
		return fmt.Errorf("optimizer weights must not both be zero")
	}
	if c.Grid.ForecastHorizonHours <= 0 {
		return fmt.Errorf("grid.forecast_horizon_hours must be positive, got %d", c.Grid.ForecastHorizonHours)
	}
	switch c.Audit.Driver {
	case "memory":
	case "mysql":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn is required for the mysql driver")
		}
	default:
		return fmt.Errorf("audit.driver must be memory or mysql, got %q", c.Audit.Driver)
	}
	if c.Server.DemoSeed < 0 {
		return fmt.Errorf("server.demo_seed must not be negative, got %d", c.Server.DemoSeed)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
