package configloader

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over the file.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvRedisURL   = "REDIS_URL"

	DefaultConfigPath = "config/config.yml"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
	EnablePprof         bool   `yaml:"enablePprof"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// CacheConfig selects and tunes the cache driver.
type CacheConfig struct {
	Driver            string `yaml:"driver"` // memory, lru or redis
	RedisURL          string `yaml:"redisURL"`
	Namespace         string `yaml:"namespace"`
	LRUSize           int    `yaml:"lruSize"`
	DefaultTTLMinutes int    `yaml:"defaultTTLMinutes"`
}

// JobsConfig holds the scheduler settings.
type JobsConfig struct {
	Enabled              bool           `yaml:"enabled"`
	IntervalSeconds      map[string]int `yaml:"intervalSeconds"` // keyed by job label
	TimeoutSeconds       int            `yaml:"timeoutSeconds"`
	MaxConcurrent        int            `yaml:"maxConcurrent"`
	MaxRetries           int            `yaml:"maxRetries"`
	InitialBackoffMillis int64          `yaml:"initialBackoffMillis"`
}

// FetchersConfig bounds portfolio fetching.
type FetchersConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	MaxConcurrent  int `yaml:"maxConcurrent"`
	MaxOwners      int `yaml:"maxOwners"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	RPCCallTimeoutSeconds    int     `yaml:"rpcCallTimeoutSeconds"`
	ConnectionTimeoutSeconds int     `yaml:"connectionTimeoutSeconds"`
	MaxBatchSize             int     `yaml:"maxBatchSize"`
	RateLimit                float64 `yaml:"rateLimit"` // requests per second, 0 disables
	RateBurst                int     `yaml:"rateBurst"`
	OwnedObjectsPageSize     int     `yaml:"ownedObjectsPageSize"`
	MaxOwnedObjects          int     `yaml:"maxOwnedObjects"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenPriceServiceConfig holds configuration for the token price job.
type TokenPriceServiceConfig struct {
	TokensDir                string `yaml:"tokensDir"`
	MaxTokensPerBatchRequest int    `yaml:"maxTokensPerBatchRequest"`
	MaxConcurrentRequests    int    `yaml:"maxConcurrentRequests"`
	CacheTTLMinutes          int    `yaml:"cacheTTLMinutes"`
	RequestTimeoutMillis     int64  `yaml:"requestTimeoutMillis"`
}

// NetworkConfig enables a known network and optionally replaces its endpoints.
type NetworkConfig struct {
	ID              string   `yaml:"id"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"`
}

// TracingConfig configures the OTLP exporter. An empty endpoint disables it.
type TracingConfig struct {
	Enabled              bool    `yaml:"enabled"`
	Endpoint             string  `yaml:"endpoint"`
	Insecure             bool    `yaml:"insecure"`
	ServiceName          string  `yaml:"serviceName"`
	SampleRatio          float64 `yaml:"sampleRatio"`
	ExportTimeoutSeconds int     `yaml:"exportTimeoutSeconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Logging       LoggingConfig           `yaml:"logging"`
	Cache         CacheConfig             `yaml:"cache"`
	Jobs          JobsConfig              `yaml:"jobs"`
	Fetchers      FetchersConfig          `yaml:"fetchers"`
	Performance   PerformanceConfig       `yaml:"performance"`
	DEXScreener   DEXScreenerConfig       `yaml:"dexScreener"`
	TokenPriceSvc TokenPriceServiceConfig `yaml:"tokenPriceService"`
	Networks      []NetworkConfig         `yaml:"networks"`
	Tracing       TracingConfig           `yaml:"tracing"`
	WalletsFile   string                  `yaml:"walletsFile"`
}

// PathFromEnv returns the config path from CONFIG_PATH or the default.
func PathFromEnv() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	if url := os.Getenv(EnvRedisURL); url != "" {
		cfg.Cache.RedisURL = url
		if cfg.Cache.Driver == "" {
			cfg.Cache.Driver = "redis"
		}
		logrus.Infof("%s is set, using it for the cache driver", EnvRedisURL)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 120
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
		logrus.Infof("Cache.Driver not set, defaulting to %s", cfg.Cache.Driver)
	}
	if cfg.Cache.Namespace == "" {
		cfg.Cache.Namespace = "portfolio"
	}
	if cfg.Cache.LRUSize <= 0 {
		cfg.Cache.LRUSize = 10000
	}
	if cfg.Cache.DefaultTTLMinutes <= 0 {
		cfg.Cache.DefaultTTLMinutes = 60
	}

	if cfg.Jobs.IntervalSeconds == nil {
		cfg.Jobs.IntervalSeconds = map[string]int{}
	}
	for label, secs := range map[string]int{"normal": 300, "cronjob": 3600, "realtime": 30} {
		if cfg.Jobs.IntervalSeconds[label] <= 0 {
			cfg.Jobs.IntervalSeconds[label] = secs
		}
	}
	if cfg.Jobs.TimeoutSeconds <= 0 {
		cfg.Jobs.TimeoutSeconds = 120
		logrus.Infof("Jobs.TimeoutSeconds not set, defaulting to %d", cfg.Jobs.TimeoutSeconds)
	}
	if cfg.Jobs.MaxConcurrent <= 0 {
		cfg.Jobs.MaxConcurrent = 4
	}
	if cfg.Jobs.MaxRetries < 0 {
		cfg.Jobs.MaxRetries = 0
	} else if cfg.Jobs.MaxRetries == 0 {
		cfg.Jobs.MaxRetries = 3
	}
	if cfg.Jobs.InitialBackoffMillis <= 0 {
		cfg.Jobs.InitialBackoffMillis = 500
	}

	if cfg.Fetchers.TimeoutSeconds <= 0 {
		cfg.Fetchers.TimeoutSeconds = 30
	}
	if cfg.Fetchers.MaxConcurrent <= 0 {
		cfg.Fetchers.MaxConcurrent = 10
	}
	if cfg.Fetchers.MaxOwners <= 0 {
		cfg.Fetchers.MaxOwners = 50
	}

	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 15
	}
	if cfg.Performance.ConnectionTimeoutSeconds <= 0 {
		cfg.Performance.ConnectionTimeoutSeconds = 10
	}
	if cfg.Performance.MaxBatchSize <= 0 {
		cfg.Performance.MaxBatchSize = 100
	}

	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.RequestTimeoutMillis <= 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}

	if cfg.TokenPriceSvc.TokensDir == "" {
		cfg.TokenPriceSvc.TokensDir = "data/tokens"
	}
	if cfg.TokenPriceSvc.MaxTokensPerBatchRequest <= 0 {
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest = 30 // DEXScreener limit
		logrus.Infof("MaxTokensPerBatchRequest for TokenPriceSvc not set, defaulting to %d", cfg.TokenPriceSvc.MaxTokensPerBatchRequest)
	}
	if cfg.TokenPriceSvc.MaxConcurrentRequests <= 0 {
		cfg.TokenPriceSvc.MaxConcurrentRequests = 5
	}
	if cfg.TokenPriceSvc.CacheTTLMinutes <= 0 {
		cfg.TokenPriceSvc.CacheTTLMinutes = 15
	}
	if cfg.TokenPriceSvc.RequestTimeoutMillis <= 0 {
		cfg.TokenPriceSvc.RequestTimeoutMillis = cfg.DEXScreener.RequestTimeoutMillis
		logrus.Infof("TokenPriceSvc.RequestTimeoutMillis not set, defaulting to DEXScreener.RequestTimeoutMillis: %d ms", cfg.TokenPriceSvc.RequestTimeoutMillis)
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "portfolio-aggregator"
	}
	if cfg.Tracing.SampleRatio <= 0 || cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = 1
	}
	if cfg.Tracing.ExportTimeoutSeconds <= 0 {
		cfg.Tracing.ExportTimeoutSeconds = 10
	}

	if cfg.WalletsFile == "" {
		cfg.WalletsFile = "data/wallets.txt"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case "memory", "lru":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache driver redis requires cache.redisURL or %s", EnvRedisURL)
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	for i, n := range c.Networks {
		if n.ID == "" {
			return fmt.Errorf("networks[%d]: id is required", i)
		}
	}
	return nil
}

// JobInterval returns the schedule interval for a job label.
func (c *Config) JobInterval(label string) time.Duration {
	return time.Duration(c.Jobs.IntervalSeconds[label]) * time.Second
}

// CacheTTL returns the default item TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.DefaultTTLMinutes) * time.Minute
}
