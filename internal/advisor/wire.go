package advisor

import (
	"fmt"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/retrieval"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/storefront"
)

// Runtime is a fully wired Advisor plus the resources it owns.
type Runtime struct {
	Advisor *Advisor
	// CatalogConfigured is false when storefront credentials are missing.
	CatalogConfigured bool
	// RecommenderConfigured is false when no API key is set.
	RecommenderConfigured bool
	// Endpoint is the storefront GraphQL URL, empty when not configured.
	Endpoint string
	cache    cache.Client
}

// Close releases the cache connection, if any.
func (r *Runtime) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

// NewFromConfig wires every component from cfg. Missing storefront credentials
// disable searching; a missing API key disables Advise but not Search.
func NewFromConfig(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (*Runtime, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	rt := &Runtime{}

	var cat retrieval.Catalog
	var shop ShopLookup
	if cfg.CatalogConfigured() {
		sf, err := storefront.NewClient(storefront.Config{
			Domain:     cfg.Storefront.Domain,
			Token:      cfg.Storefront.Token,
			APIVersion: cfg.Storefront.APIVersion,
			Timeout:    cfg.Storefront.Timeout,
			RateLimit:  cfg.Storefront.RateLimit,
			RateBurst:  cfg.Storefront.RateBurst,
			Retry:      storefront.RetryConfig{MaxRetries: cfg.Storefront.MaxRetries},
		}, logger.WithOperation("storefront"))
		if err != nil {
			return nil, fmt.Errorf("create storefront client: %w", err)
		}
		cat, shop = sf, sf
		rt.CatalogConfigured = true
		rt.Endpoint = sf.Endpoint()
	} else {
		logger.Warn().Msg("Storefront domain or token missing, product search disabled")
	}

	cacheClient, err := cache.Open(cfg.Cache.Driver, cfg.Cache.MaxEntries, cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	rt.cache = cacheClient
	if cacheClient != nil && cat != nil {
		cat = retrieval.NewCachedCatalog(cat, cacheClient, logger, retrieval.CatalogCacheConfig{
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cache.Key("catalog", cfg.Storefront.Domain),
		})
	}

	extractor := retrieval.NewKeywordExtractor(retrieval.KeywordExtractorConfig{
		MinLength:      cfg.Search.MinKeywordLength,
		MaxKeywords:    cfg.Search.MaxKeywords,
		Locale:         cfg.Recommendation.Locale,
		Stopwords:      cfg.Search.Stopwords,
		ExtraStopwords: cfg.Search.ExtraStopwords,
	})
	builder := retrieval.NewQueryBuilder(cfg.Search.FieldCombinator, cfg.Search.BroadQuery)
	router := retrieval.NewRouter(logger, cat, extractor, builder, metrics, retrieval.RouterConfig{
		ResultLimit: cfg.Search.ResultLimit,
	})

	normalizer := retrieval.NewNormalizer(retrieval.NormalizerConfig{
		FrontendBaseURL:    cfg.Storefront.FrontendBaseURL,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		PublicOrigin:       cfg.Storefront.PublicOrigin,
		ShopDomain:         cfg.Storefront.Domain,
		AdminDomainSuffix:  cfg.Storefront.AdminDomainSuffix,
		PublicDomainSuffix: cfg.Storefront.PublicDomainSuffix,
	})

	var rec Recommender
	if cfg.Recommendation.APIKey != "" {
		client, err := recommend.NewClient(recommend.Config{
			APIKey:      cfg.Recommendation.APIKey,
			BaseURL:     cfg.Recommendation.BaseURL,
			Model:       cfg.Recommendation.Model,
			Temperature: cfg.Recommendation.Temperature,
			MaxTokens:   cfg.Recommendation.MaxTokens,
			Timeout:     cfg.Recommendation.Timeout,
		}, logger.WithOperation("recommend"))
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("create recommendation client: %w", err)
		}
		rec = client
		rt.RecommenderConfigured = true
	} else {
		logger.Warn().Msg("Recommendation API key missing, advice disabled")
	}

	rt.Advisor = New(Deps{
		Router:      router,
		Normalizer:  normalizer,
		Compactor:   retrieval.NewCompactor(cfg.Compaction.Cap, cfg.Compaction.IncludeVendor),
		Prompts:     recommend.NewPromptBuilder(cfg.Recommendation.Locale, cfg.Recommendation.SystemPrompt),
		Recommender: rec,
		Shop:        shop,
		Metrics:     metrics,
		Logger:      logger,
	}, Config{Timeout: cfg.Advisor.Timeout})

	return rt, nil
}
