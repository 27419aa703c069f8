package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable applyEnvOverrides reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_PORT", "PORT", "SERVER_HOST", "ALLOWED_ORIGINS", "ALLOWED_ORIGIN",
		"SHOPIFY_DOMAIN", "SHOPIFY_STOREFRONT_TOKEN", "SHOPIFY_API_VERSION",
		"FRONTEND_BASE_URL", "PUBLIC_ORIGIN", "OPENAI_API_KEY", "OPENAI_MODEL",
		"OPENAI_BASE_URL", "ADVISOR_LOCALE", "KEYWORD_MIN_LENGTH", "FIELD_COMBINATOR",
		"SEARCH_RESULT_LIMIT", "COMPACTION_CAP", "REDIS_URL", "CACHE_DRIVER",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2, cfg.Search.MinKeywordLength)
	assert.Equal(t, "OR", cfg.Search.FieldCombinator)
	assert.Equal(t, 50, cfg.Search.ResultLimit)
	assert.Equal(t, "available_for_sale:true", cfg.Search.BroadQuery)
	assert.Equal(t, 50, cfg.Compaction.Cap)
	assert.Equal(t, "gpt-4o-mini", cfg.Recommendation.Model)
	assert.InDelta(t, 0.4, cfg.Recommendation.Temperature, 0.0001)
	assert.Equal(t, "de", cfg.Recommendation.Locale)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, 0, cfg.Storefront.MaxRetries)
	assert.Equal(t, ".myshopify.com", cfg.Storefront.AdminDomainSuffix)
	assert.Equal(t, ".store", cfg.Storefront.PublicDomainSuffix)
	assert.False(t, cfg.CatalogConfigured())
}

func TestLoad_PublicDomainSuffixCanBeCleared(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "advisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storefront:\n  public_domain_suffix: \"\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Storefront.PublicDomainSuffix)
	assert.Equal(t, ".myshopify.com", cfg.Storefront.AdminDomainSuffix)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "advisor.yaml")
	yaml := `
server:
  port: 9090
  allowed_origins: ["https://shop.example", "https://admin.example"]
search:
  min_keyword_length: 3
  field_combinator: AND
compaction:
  cap: 20
recommendation:
  locale: en
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SHOPIFY_DOMAIN", "demo.myshopify.com")
	t.Setenv("SHOPIFY_STOREFRONT_TOKEN", "tok")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3, cfg.Search.MinKeywordLength)
	assert.Equal(t, "AND", cfg.Search.FieldCombinator)
	assert.Equal(t, 20, cfg.Compaction.Cap)
	assert.Equal(t, "en", cfg.Recommendation.Locale)
	assert.Equal(t, 5*time.Second, cfg.Recommendation.Timeout)
	assert.Equal(t, "gpt-4o", cfg.Recommendation.Model)
	assert.True(t, cfg.CatalogConfigured())

	// untouched sections keep their defaults
	assert.Equal(t, 50, cfg.Search.ResultLimit)
}

func TestLoad_AllowedOriginsEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected []string
	}{
		{
			name:     "plural list",
			env:      map[string]string{"ALLOWED_ORIGINS": "https://a.example, https://b.example ,"},
			expected: []string{"https://a.example", "https://b.example"},
		},
		{
			name:     "legacy singular name",
			env:      map[string]string{"ALLOWED_ORIGIN": "https://legacy.example"},
			expected: []string{"https://legacy.example"},
		},
		{
			name: "plural wins",
			env: map[string]string{
				"ALLOWED_ORIGINS": "https://new.example",
				"ALLOWED_ORIGIN":  "https://legacy.example",
			},
			expected: []string{"https://new.example"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.Server.AllowedOrigins)
		})
	}
}

func TestLoad_RedisURLSelectsRedisDriver(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{name: "host and port", url: "redis://cache:6379", addr: "cache:6379"},
		{name: "password and database", url: "redis://:s3cret@cache.internal:6379/2", addr: "cache.internal:6379", password: "s3cret", db: 2},
		{name: "default port", url: "redis://cache.internal", addr: "cache.internal:6379"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("REDIS_URL", tc.url)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, "redis", cfg.Cache.Driver)
			assert.Equal(t, tc.addr, cfg.Cache.Redis.Addr)
			assert.Equal(t, tc.password, cfg.Cache.Redis.Password)
			assert.Equal(t, tc.db, cfg.Cache.Redis.DB)
		})
	}
}

func TestLoad_InvalidRedisURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "http://cache:6379")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse REDIS_URL")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"zero min length", func(c *Config) { c.Search.MinKeywordLength = 0 }, "min_keyword_length"},
		{"bad combinator", func(c *Config) { c.Search.FieldCombinator = "XOR" }, "field_combinator"},
		{"lowercase combinator accepted", func(c *Config) { c.Search.FieldCombinator = "and" }, ""},
		{"result limit too large", func(c *Config) { c.Search.ResultLimit = 500 }, "result_limit"},
		{"empty broad query", func(c *Config) { c.Search.BroadQuery = "  " }, "broad_query"},
		{"zero cap", func(c *Config) { c.Compaction.Cap = 0 }, "compaction.cap"},
		{"unknown locale", func(c *Config) { c.Recommendation.Locale = "fr" }, "locale"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache driver"},
		{"relative frontend url", func(c *Config) { c.Storefront.FrontendBaseURL = "shop.example" }, "frontend_base_url"},
		{"negative retries", func(c *Config) { c.Storefront.MaxRetries = -1 }, "max_retries"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/etc/advisor/prompts/de.txt", ResolveRelativePath("/etc/advisor/config.yaml", "prompts/de.txt"))
	assert.Equal(t, "/abs/de.txt", ResolveRelativePath("/etc/advisor/config.yaml", "/abs/de.txt"))
}

func TestLoad_SystemPromptFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("Be brief.\n"), 0o600))
	path := filepath.Join(dir, "advisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommendation:\n  system_prompt_file: prompt.txt\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", cfg.Recommendation.SystemPrompt)
}
