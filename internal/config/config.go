package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sharkfunded/risk-engine/internal/engineerr"
)

// Config holds all engine configuration. Values come from an optional YAML
// file overridden by environment variables, so deployments can ship a base
// file and tune per-environment through the process environment.
type Config struct {
	Environment string `yaml:"environment"`
	LogDir      string `yaml:"log_dir"`

	Sweep struct {
		IntervalSeconds      int    `yaml:"interval_seconds"`
		MaxConcurrentWorkers int    `yaml:"max_concurrent_workers"`
		MaxRetriesPerTick    int    `yaml:"max_enforcement_retries_per_tick"`
		SODResetCron         string `yaml:"sod_reset_cron"`
		Timezone             string `yaml:"timezone"`
	} `yaml:"sweep"`

	Bridge struct {
		BaseURL            string  `yaml:"base_url"`
		APIKey             string  `yaml:"api_key"`
		TimeoutSeconds     int     `yaml:"timeout_seconds"`
		RequestsPerSecond  float64 `yaml:"requests_per_second"`
		Burst              int     `yaml:"burst"`
		MockEquitySentinel float64 `yaml:"mock_equity_sentinel"`
	} `yaml:"bridge"`

	Database struct {
		SQLitePath     string `yaml:"sqlite_path"`
		ConfigCacheTTL int    `yaml:"risk_config_cache_ttl_seconds"`
	} `yaml:"database"`

	Payout struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"payout"`

	Monitoring struct {
		PrometheusPort int `yaml:"prometheus_port"`
		HealthPort     int `yaml:"health_port"`
	} `yaml:"monitoring"`
}

// SweepInterval returns the sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalSeconds) * time.Second
}

// BridgeTimeout returns the per-call bridge timeout. Deliberately short:
// a hung bridge call must never eat a whole sweep interval.
func (c *Config) BridgeTimeout() time.Duration {
	return time.Duration(c.Bridge.TimeoutSeconds) * time.Second
}

// ConfigCacheTTL returns the risk rule cache TTL as a duration.
func (c *Config) ConfigCacheTTL() time.Duration {
	return time.Duration(c.Database.ConfigCacheTTL) * time.Second
}

// Load reads config from a YAML file if present, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)

	cfg.Sweep.IntervalSeconds = getEnvInt("SWEEP_INTERVAL_SECONDS", cfg.Sweep.IntervalSeconds)
	cfg.Sweep.MaxConcurrentWorkers = getEnvInt("MAX_CONCURRENT_WORKERS", cfg.Sweep.MaxConcurrentWorkers)
	cfg.Sweep.MaxRetriesPerTick = getEnvInt("MAX_ENFORCEMENT_RETRIES_PER_TICK", cfg.Sweep.MaxRetriesPerTick)
	cfg.Sweep.SODResetCron = getEnv("SOD_RESET_CRON", cfg.Sweep.SODResetCron)
	cfg.Sweep.Timezone = getEnv("SWEEP_TIMEZONE", cfg.Sweep.Timezone)

	cfg.Bridge.BaseURL = getEnv("BRIDGE_URL", cfg.Bridge.BaseURL)
	cfg.Bridge.APIKey = getEnv("BRIDGE_API_KEY", cfg.Bridge.APIKey)
	cfg.Bridge.TimeoutSeconds = getEnvInt("BRIDGE_TIMEOUT_SECONDS", cfg.Bridge.TimeoutSeconds)
	cfg.Bridge.RequestsPerSecond = getEnvFloat("BRIDGE_REQUESTS_PER_SECOND", cfg.Bridge.RequestsPerSecond)
	cfg.Bridge.Burst = getEnvInt("BRIDGE_BURST", cfg.Bridge.Burst)
	cfg.Bridge.MockEquitySentinel = getEnvFloat("BRIDGE_MOCK_EQUITY_SENTINEL", cfg.Bridge.MockEquitySentinel)

	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.ConfigCacheTTL = getEnvInt("RISK_CONFIG_CACHE_TTL_SECONDS", cfg.Database.ConfigCacheTTL)

	cfg.Payout.ListenAddr = getEnv("PAYOUT_LISTEN_ADDR", cfg.Payout.ListenAddr)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", cfg.Monitoring.PrometheusPort)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", cfg.Monitoring.HealthPort)
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	if cfg.Sweep.IntervalSeconds <= 0 {
		cfg.Sweep.IntervalSeconds = 60
	}
	if cfg.Sweep.MaxConcurrentWorkers <= 0 {
		cfg.Sweep.MaxConcurrentWorkers = 20
	}
	if cfg.Sweep.MaxRetriesPerTick <= 0 {
		cfg.Sweep.MaxRetriesPerTick = 3
	}
	if cfg.Sweep.SODResetCron == "" {
		cfg.Sweep.SODResetCron = "0 0 0 * * *"
	}
	if cfg.Sweep.Timezone == "" {
		cfg.Sweep.Timezone = "UTC"
	}
	if cfg.Bridge.TimeoutSeconds <= 0 {
		cfg.Bridge.TimeoutSeconds = 10
	}
	if cfg.Bridge.RequestsPerSecond <= 0 {
		cfg.Bridge.RequestsPerSecond = 25
	}
	if cfg.Bridge.Burst <= 0 {
		cfg.Bridge.Burst = 30
	}
	if cfg.Bridge.MockEquitySentinel <= 0 {
		cfg.Bridge.MockEquitySentinel = 100000
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "risk_engine.db"
	}
	if cfg.Database.ConfigCacheTTL <= 0 {
		cfg.Database.ConfigCacheTTL = 300
	}
	if cfg.Payout.ListenAddr == "" {
		cfg.Payout.ListenAddr = ":8090"
	}
	if cfg.Monitoring.PrometheusPort <= 0 {
		cfg.Monitoring.PrometheusPort = 8080
	}
	if cfg.Monitoring.HealthPort <= 0 {
		cfg.Monitoring.HealthPort = 8081
	}
}

// Validate rejects configurations the engine cannot run with. Failures are
// fatal-category errors so the process exits instead of sweeping half-wired.
func (c *Config) Validate() error {
	if c.Bridge.BaseURL == "" {
		return engineerr.NewConfigError("config", "validate", "bridge base URL is required (BRIDGE_URL)")
	}
	if _, err := time.LoadLocation(c.Sweep.Timezone); err != nil {
		return engineerr.NewConfigError("config", "validate",
			fmt.Sprintf("invalid sweep timezone %q: %v", c.Sweep.Timezone, err))
	}
	return nil
}

// Location returns the configured timezone for start-of-day resets.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Sweep.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
