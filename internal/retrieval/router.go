// Package retrieval turns a shopper message into a bounded, normalized product list:
// keyword extraction, tiered catalog escalation, normalization and prompt compaction.
package retrieval

import (
	"context"
	"time"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// Catalog is the product search collaborator.
type Catalog interface {
	Search(ctx context.Context, query string, first int) ([]catalog.RawProduct, error)
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// ResultLimit bounds every tier's result count.
	ResultLimit int
}

// TierAttempt records one catalog call made during escalation.
type TierAttempt struct {
	Expression catalog.QueryExpression
	Results    int
	Err        error
}

// SearchResult is the outcome of one escalation.
type SearchResult struct {
	Keywords catalog.KeywordSet
	// Tier is the tier that produced Records, or TierNone.
	Tier     catalog.Tier
	Query    string
	Records  []catalog.RawProduct
	Attempts []TierAttempt
	Latency  time.Duration
}

// Router runs the search escalation against the catalog.
type Router struct {
	logger    *observability.Logger
	catalog   Catalog
	extractor *KeywordExtractor
	builder   *QueryBuilder
	metrics   *observability.Metrics
	config    RouterConfig
}

// NewRouter creates a router. A nil catalog disables searching: every escalation comes back empty.
func NewRouter(
	logger *observability.Logger,
	cat Catalog,
	extractor *KeywordExtractor,
	builder *QueryBuilder,
	metrics *observability.Metrics,
	cfg RouterConfig,
) *Router {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if extractor == nil {
		extractor = NewKeywordExtractor(KeywordExtractorConfig{})
	}
	if builder == nil {
		builder = NewQueryBuilder(CombinatorOR, DefaultBroadQuery)
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 50
	}

	return &Router{
		logger:    logger,
		catalog:   cat,
		extractor: extractor,
		builder:   builder,
		metrics:   metrics,
		config:    cfg,
	}
}

// Keywords exposes the router's extractor.
func (r *Router) Keywords(message string) (catalog.KeywordSet, bool) {
	return r.extractor.Extract(message)
}

// Search escalates through the tiers and stops at the first non-empty one.
// Catalog failures are logged and count as empty; only a finished context aborts.
func (r *Router) Search(ctx context.Context, message string) (*SearchResult, error) {
	start := time.Now()
	log := r.logger.WithContext(ctx)

	keywords, _ := r.extractor.Extract(message)
	result := &SearchResult{
		Keywords: keywords,
		Tier:     catalog.TierNone,
		Records:  []catalog.RawProduct{},
	}

	if r.catalog == nil {
		log.Warn().Msg("Catalog not configured, skipping product search")
		result.Latency = time.Since(start)
		return result, nil
	}

	log.Debug().
		Strs("keywords", keywords).
		Msg("Starting catalog escalation")

	for _, expr := range r.builder.Plan(keywords) {
		if derr := domain.FromContext(ctx, "catalog search"); derr != nil {
			return nil, derr
		}

		records, err := r.catalog.Search(ctx, expr.Query, r.config.ResultLimit)
		attempt := TierAttempt{Expression: expr, Results: len(records)}

		if err != nil {
			if derr := domain.FromContext(ctx, "catalog search"); derr != nil {
				return nil, derr
			}

			attempt.Results = 0
			attempt.Err = err
			result.Attempts = append(result.Attempts, attempt)
			r.metrics.ObserveCatalogQuery(int(expr.Tier), observability.OutcomeError)

			log.Warn().
				Err(err).
				Tier(expr.Tier).
				Str("query", expr.Query).
				Msg("Catalog query failed, treating tier as empty")
			continue
		}

		result.Attempts = append(result.Attempts, attempt)

		if len(records) == 0 {
			r.metrics.ObserveCatalogQuery(int(expr.Tier), observability.OutcomeEmpty)
			log.Debug().
				Tier(expr.Tier).
				Str("query", expr.Query).
				Msg("Catalog tier returned no products")
			continue
		}

		r.metrics.ObserveCatalogQuery(int(expr.Tier), observability.OutcomeHit)
		result.Tier = expr.Tier
		result.Query = expr.Query
		result.Records = records
		break
	}

	r.metrics.ObserveResolvedTier(int(result.Tier))
	result.Latency = time.Since(start)

	log.Debug().
		Tier(result.Tier).
		Int("products", len(result.Records)).
		Int("catalog_calls", len(result.Attempts)).
		Dur("latency", result.Latency).
		Msg("Catalog escalation finished")

	return result, nil
}
