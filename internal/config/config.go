// Package config provides unified configuration loading for the Storefront Advisor.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Storefront Advisor.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Storefront     StorefrontConfig     `yaml:"storefront"`
	Search         SearchConfig         `yaml:"search"`
	Compaction     CompactionConfig     `yaml:"compaction"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Advisor        AdvisorConfig        `yaml:"advisor"`
	Cache          CacheConfig          `yaml:"cache"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	// AllowedOrigins is the CORS allow-list. "*" allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorefrontConfig holds catalog (Shopify Storefront API) settings.
type StorefrontConfig struct {
	Domain     string        `yaml:"domain"` // e.g. my-shop.myshopify.com
	Token      string        `yaml:"token"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	// FrontendBaseURL is the public storefront prefix used when a product has no canonical URL.
	FrontendBaseURL string `yaml:"frontend_base_url"`
	// PublicOrigin marks which allowed origin is the public storefront domain.
	PublicOrigin string `yaml:"public_origin"`
	// AdminDomainSuffix is stripped from Domain when building last-resort product links.
	AdminDomainSuffix string `yaml:"admin_domain_suffix"`
	// PublicDomainSuffix replaces AdminDomainSuffix. Empty keeps Domain unchanged.
	PublicDomainSuffix string  `yaml:"public_domain_suffix"`
	RateLimit          float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst          int     `yaml:"rate_burst"`
	MaxRetries         int     `yaml:"max_retries"`
}

// SearchConfig holds keyword extraction and tier escalation settings.
type SearchConfig struct {
	MinKeywordLength int      `yaml:"min_keyword_length"`
	MaxKeywords      int      `yaml:"max_keywords"` // 0 means unlimited
	Stopwords        []string `yaml:"stopwords"`    // replaces the locale list when set
	ExtraStopwords   []string `yaml:"extra_stopwords"`
	// FieldCombinator joins the per-keyword groups of the field-match tier: OR or AND.
	FieldCombinator string `yaml:"field_combinator"`
	ResultLimit     int    `yaml:"result_limit"`
	BroadQuery      string `yaml:"broad_query"`
}

// CompactionConfig holds prompt payload bounds.
type CompactionConfig struct {
	Cap           int  `yaml:"cap"`
	IncludeVendor bool `yaml:"include_vendor"`
}

// RecommendationConfig holds language model settings.
type RecommendationConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	MaxTokens    int           `yaml:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout"`
	Locale       string        `yaml:"locale"` // de or en
	SystemPrompt string        `yaml:"system_prompt"`
	// SystemPromptFile is read into SystemPrompt at load time, relative to the config file.
	SystemPromptFile string `yaml:"system_prompt_file"`
}

// AdvisorConfig holds pipeline-level settings.
type AdvisorConfig struct {
	// Timeout bounds one whole pipeline run.
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig holds catalog response cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	ServiceName      string `yaml:"service_name"`
	MetricsEnabled   bool   `yaml:"metrics_enabled"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// Load reads configuration from a YAML file and applies .env and environment overrides.
func Load(path string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if f := cfg.Recommendation.SystemPromptFile; f != "" {
			prompt, err := os.ReadFile(ResolveRelativePath(path, f))
			if err != nil {
				return nil, fmt.Errorf("read system prompt file: %w", err)
			}
			cfg.Recommendation.SystemPrompt = strings.TrimSpace(string(prompt))
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		Storefront: StorefrontConfig{
			APIVersion:         "2024-07",
			Timeout:            10 * time.Second,
			AdminDomainSuffix:  ".myshopify.com",
			PublicDomainSuffix: ".store",
			RateLimit:          4,
			RateBurst:          8,
			MaxRetries:         0,
		},
		Search: SearchConfig{
			MinKeywordLength: 2,
			MaxKeywords:      0,
			FieldCombinator:  "OR",
			ResultLimit:      50,
			BroadQuery:       "available_for_sale:true",
		},
		Compaction: CompactionConfig{
			Cap:           50,
			IncludeVendor: true,
		},
		Recommendation: RecommendationConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
			Timeout:     45 * time.Second,
			Locale:      "de",
		},
		Advisor: AdvisorConfig{
			Timeout: 55 * time.Second,
		},
		Cache: CacheConfig{
			Driver:     "none",
			TTL:        2 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "sfa:",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:         "info",
			LogFormat:        "json",
			ServiceName:      "storefront-advisor",
			MetricsEnabled:   true,
			MetricsNamespace: "storefront_advisor",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Search.MinKeywordLength < 1 {
		return fmt.Errorf("search.min_keyword_length must be at least 1")
	}

	if c.Search.MaxKeywords < 0 {
		return fmt.Errorf("search.max_keywords must not be negative")
	}

	switch strings.ToUpper(c.Search.FieldCombinator) {
	case "OR", "AND":
	default:
		return fmt.Errorf("invalid search.field_combinator: %s", c.Search.FieldCombinator)
	}

	if c.Search.ResultLimit < 1 || c.Search.ResultLimit > 250 {
		return fmt.Errorf("search.result_limit must be between 1 and 250")
	}

	if strings.TrimSpace(c.Search.BroadQuery) == "" {
		return fmt.Errorf("search.broad_query is required")
	}

	if c.Compaction.Cap < 1 {
		return fmt.Errorf("compaction.cap must be at least 1")
	}

	switch c.Recommendation.Locale {
	case "de", "en":
	default:
		return fmt.Errorf("invalid recommendation.locale: %s", c.Recommendation.Locale)
	}

	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Storefront.FrontendBaseURL != "" && !isAbsoluteHTTPURL(c.Storefront.FrontendBaseURL) {
		return fmt.Errorf("storefront.frontend_base_url must be an absolute http(s) URL")
	}

	if c.Storefront.RateLimit < 0 || c.Storefront.MaxRetries < 0 {
		return fmt.Errorf("storefront rate_limit and max_retries must not be negative")
	}

	return nil
}

// CatalogConfigured reports whether the storefront credentials are present.
func (c *Config) CatalogConfigured() bool {
	return c.Storefront.Domain != "" && c.Storefront.Token != ""
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
// Only REDIS_URL can fail; malformed numeric values are ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	// ALLOWED_ORIGINS wins over the singular legacy name.
	if v := firstEnv("ALLOWED_ORIGINS", "ALLOWED_ORIGIN"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("SHOPIFY_DOMAIN"); v != "" {
		cfg.Storefront.Domain = strings.TrimSpace(v)
	}

	if v := os.Getenv("SHOPIFY_STOREFRONT_TOKEN"); v != "" {
		cfg.Storefront.Token = v
	}

	if v := os.Getenv("SHOPIFY_API_VERSION"); v != "" {
		cfg.Storefront.APIVersion = v
	}

	if v := os.Getenv("FRONTEND_BASE_URL"); v != "" {
		cfg.Storefront.FrontendBaseURL = v
	}

	if v := os.Getenv("PUBLIC_ORIGIN"); v != "" {
		cfg.Storefront.PublicOrigin = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Recommendation.APIKey = v
	}

	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Recommendation.Model = v
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Recommendation.BaseURL = v
	}

	if v := os.Getenv("ADVISOR_LOCALE"); v != "" {
		cfg.Recommendation.Locale = v
	}

	if v := os.Getenv("KEYWORD_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MinKeywordLength = n
		}
	}

	if v := os.Getenv("FIELD_COMBINATOR"); v != "" {
		cfg.Search.FieldCombinator = strings.ToUpper(v)
	}

	if v := os.Getenv("SEARCH_RESULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.ResultLimit = n
		}
	}

	if v := os.Getenv("COMPACTION_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compaction.Cap = n
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		opt, err := redis.ParseURL(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = opt.Addr
		cfg.Cache.Redis.Password = opt.Password
		cfg.Cache.Redis.DB = opt.DB
	}

	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
