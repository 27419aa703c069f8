package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// CachedCatalog wraps a Catalog with a response cache keyed by query and result bound.
// Errors are never cached.
type CachedCatalog struct {
	next   Catalog
	client cache.Client
	logger *observability.Logger
	ttl    time.Duration
	prefix string
}

// CatalogCacheConfig configures the catalog response cache.
type CatalogCacheConfig struct {
	TTL time.Duration
	// KeyPrefix namespaces entries, e.g. per shop domain.
	KeyPrefix string
}

// NewCachedCatalog wraps next. A nil client returns next unchanged.
func NewCachedCatalog(next Catalog, client cache.Client, logger *observability.Logger, cfg CatalogCacheConfig) Catalog {
	if client == nil || next == nil {
		return next
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "catalog"
	}

	return &CachedCatalog{
		next:   next,
		client: client,
		logger: logger,
		ttl:    cfg.TTL,
		prefix: cfg.KeyPrefix,
	}
}

// CacheKey returns the cache key for a query.
func (c *CachedCatalog) CacheKey(query string, first int) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(first) + "|" + query))
	return cache.Key(c.prefix, hex.EncodeToString(hash[:16]))
}

// Search serves from cache when possible and stores successful responses.
func (c *CachedCatalog) Search(ctx context.Context, query string, first int) ([]catalog.RawProduct, error) {
	key := c.CacheKey(query, first)

	if data, err := c.client.Get(ctx, key); err == nil {
		var records []catalog.RawProduct
		if err := json.Unmarshal(data, &records); err == nil {
			c.logger.Debug().Str("key", key).Msg("Catalog cache hit")
			return records, nil
		}
		c.logger.Warn().Str("key", key).Msg("Discarding unreadable catalog cache entry")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Debug().Err(err).Str("key", key).Msg("Catalog cache get error")
	}

	records, err := c.next.Search(ctx, query, first)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, records); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache catalog response")
	}
	return records, nil
}

func (c *CachedCatalog) store(ctx context.Context, key string, records []catalog.RawProduct) error {
	if records == nil {
		records = []catalog.RawProduct{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal catalog response: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl)
}
