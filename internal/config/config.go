// Package config loads the waura API configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the waura search backend configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Providers ProvidersConfig `yaml:"providers"`
	Search    SearchConfig    `yaml:"search"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds catalog index settings.
type CatalogConfig struct {
	Driver           string   `yaml:"driver"` // redisearch, elasticsearch, memory (default: redisearch)
	Addrs            []string `yaml:"addrs"`  // redisearch addresses
	Password         string   `yaml:"password"`
	URL              string   `yaml:"url"` // elasticsearch URL
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	DefaultPageSize  int      `yaml:"default_page_size"`
	MaxPageSize      int      `yaml:"max_page_size"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProvidersConfig holds external image/web search provider settings.
type ProvidersConfig struct {
	GoogleCSE  GoogleCSEConfig  `yaml:"google_cse"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
	Retry      RetryConfig      `yaml:"retry"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Breaker    BreakerConfig    `yaml:"breaker"`
}

// GoogleCSEConfig holds Google Custom Search settings.
type GoogleCSEConfig struct {
	APIKey       string   `yaml:"api_key"`
	CX           string   `yaml:"cx"`
	Language     string   `yaml:"hl"` // interface language, e.g. "ru"
	Country      string   `yaml:"gl"`
	LangRestrict string   `yaml:"lr"` // e.g. "lang_ru"
	SiteAllow    []string `yaml:"site_allowlist"`
	TimeoutSec   int      `yaml:"timeout_sec"`
	MaxPageSize  int      `yaml:"max_page_size"`
	MaxOffset    int      `yaml:"max_offset"` // CSE serves at most ~100 results
}

// DuckDuckGoConfig holds DuckDuckGo image search settings.
type DuckDuckGoConfig struct {
	Region      string `yaml:"region"` // e.g. "wt-wt"
	SafeSearch  bool   `yaml:"safe_search"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	MaxPageSize int    `yaml:"max_page_size"`
	MaxOffset   int    `yaml:"max_offset"`
}

// RetryConfig bounds per-provider retries for transient errors.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
}

// RateLimitConfig throttles outbound provider calls.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BreakerConfig holds circuit breaker settings for provider clients.
type BreakerConfig struct {
	FailureRatio float64 `yaml:"failure_ratio"`
	MinRequests  uint32  `yaml:"min_requests"`
	OpenSec      int     `yaml:"open_sec"`
}

// SearchConfig holds aggregation and content-filter settings.
type SearchConfig struct {
	PageAttempts   int      `yaml:"page_attempts"` // pagination loop budget
	MinImageWidth  int      `yaml:"min_image_width"`
	MinImageHeight int      `yaml:"min_image_height"`
	BannedDomains  []string `yaml:"banned_domains"`  // appended to the built-in list
	BannedKeywords []string `yaml:"banned_keywords"` // appended to the built-in list
}

// KafkaConfig holds index-sync consumer settings. Empty brokers disable it.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	GroupID     string   `yaml:"group_id"`
	TopicPrefix string   `yaml:"topic_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "redisearch"
	}
	if c.Catalog.IndexName == "" {
		c.Catalog.IndexName = "products"
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "waura:product:"
	}
	if c.Catalog.DefaultPageSize <= 0 {
		c.Catalog.DefaultPageSize = 20
	}
	if c.Catalog.MaxPageSize <= 0 {
		c.Catalog.MaxPageSize = 50
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}
	if c.Providers.GoogleCSE.TimeoutSec <= 0 {
		c.Providers.GoogleCSE.TimeoutSec = 25
	}
	if c.Providers.GoogleCSE.MaxPageSize <= 0 {
		c.Providers.GoogleCSE.MaxPageSize = 10
	}
	if c.Providers.GoogleCSE.MaxOffset <= 0 {
		c.Providers.GoogleCSE.MaxOffset = 91
	}
	if c.Providers.DuckDuckGo.Region == "" {
		c.Providers.DuckDuckGo.Region = "wt-wt"
	}
	if c.Providers.DuckDuckGo.TimeoutSec <= 0 {
		c.Providers.DuckDuckGo.TimeoutSec = 20
	}
	if c.Providers.DuckDuckGo.MaxPageSize <= 0 {
		c.Providers.DuckDuckGo.MaxPageSize = 50
	}
	if c.Providers.DuckDuckGo.MaxOffset <= 0 {
		c.Providers.DuckDuckGo.MaxOffset = 500
	}
	if c.Providers.Retry.MaxAttempts <= 0 {
		c.Providers.Retry.MaxAttempts = 3
	}
	if c.Providers.Retry.InitialDelayMs <= 0 {
		c.Providers.Retry.InitialDelayMs = 250
	}
	if c.Providers.RateLimit.RPS <= 0 {
		c.Providers.RateLimit.RPS = 5
	}
	if c.Providers.RateLimit.Burst <= 0 {
		c.Providers.RateLimit.Burst = 5
	}
	if c.Providers.Breaker.FailureRatio <= 0 {
		c.Providers.Breaker.FailureRatio = 0.5
	}
	if c.Providers.Breaker.MinRequests == 0 {
		c.Providers.Breaker.MinRequests = 5
	}
	if c.Providers.Breaker.OpenSec <= 0 {
		c.Providers.Breaker.OpenSec = 30
	}
	if c.Search.PageAttempts <= 0 {
		c.Search.PageAttempts = 5
	}
	if c.Search.MinImageWidth <= 0 {
		c.Search.MinImageWidth = 250
	}
	if c.Search.MinImageHeight <= 0 {
		c.Search.MinImageHeight = 250
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "waura-search"
	}
	if c.Kafka.TopicPrefix == "" {
		c.Kafka.TopicPrefix = "waura.product"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case "redisearch":
		if len(c.Catalog.Addrs) == 0 {
			return fmt.Errorf("catalog.addrs is required for the redisearch driver")
		}
	case "elasticsearch":
		if c.Catalog.URL == "" {
			return fmt.Errorf("catalog.url is required for the elasticsearch driver")
		}
	case "memory":
		// no settings
	default:
		return fmt.Errorf("catalog.driver must be redisearch, elasticsearch, or memory, got %q", c.Catalog.Driver)
	}
	if c.Providers.Breaker.FailureRatio > 1 {
		return fmt.Errorf("providers.breaker.failure_ratio must be in (0, 1], got %g", c.Providers.Breaker.FailureRatio)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
