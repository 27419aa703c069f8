// Package advisor runs the request pipeline: search escalation, normalization,
// compaction and the recommendation call.
package advisor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/retrieval"
)

// Recommender turns a system instruction and user turn into shopper-facing text.
type Recommender interface {
	Recommend(ctx context.Context, system, user string) (string, error)
}

// ShopLookup returns the catalog's identity.
type ShopLookup interface {
	Shop(ctx context.Context) (*catalog.ShopInfo, error)
}

// Config holds pipeline settings.
type Config struct {
	// Timeout bounds one Advise or Search call. 0 leaves only the caller's deadline.
	Timeout time.Duration
}

// Advice is the result of one Advise call.
type Advice struct {
	Text     string
	Keywords catalog.KeywordSet
	Tier     catalog.Tier
	// Products is the number of products sent to the model.
	Products int
	Latency  time.Duration
}

// ListedProduct is a normalized product with its derived stock tier.
type ListedProduct struct {
	catalog.Product
	Stock catalog.AvailabilityTier `json:"stock"`
}

// SearchResult is the result of one Search call.
type SearchResult struct {
	Keywords catalog.KeywordSet
	Tier     catalog.Tier
	Query    string
	Items    []ListedProduct
}

// Advisor is safe for concurrent use; it holds no per-request state.
type Advisor struct {
	router      *retrieval.Router
	normalizer  *retrieval.Normalizer
	compactor   *retrieval.Compactor
	prompts     *recommend.PromptBuilder
	recommender Recommender
	shop        ShopLookup
	metrics     *observability.Metrics
	logger      *observability.Logger
	config      Config
}

// Deps groups the Advisor's collaborators. Recommender and Shop may be nil.
type Deps struct {
	Router      *retrieval.Router
	Normalizer  *retrieval.Normalizer
	Compactor   *retrieval.Compactor
	Prompts     *recommend.PromptBuilder
	Recommender Recommender
	Shop        ShopLookup
	Metrics     *observability.Metrics
	Logger      *observability.Logger
}

// New creates an Advisor. Missing core components get their defaults.
func New(deps Deps, cfg Config) *Advisor {
	if deps.Logger == nil {
		deps.Logger = observability.NopLogger()
	}
	if deps.Router == nil {
		deps.Router = retrieval.NewRouter(deps.Logger, nil, nil, nil, deps.Metrics, retrieval.RouterConfig{})
	}
	if deps.Normalizer == nil {
		deps.Normalizer = retrieval.NewNormalizer(retrieval.NormalizerConfig{})
	}
	if deps.Compactor == nil {
		deps.Compactor = retrieval.NewCompactor(0, true)
	}
	if deps.Prompts == nil {
		deps.Prompts = recommend.NewPromptBuilder("de", "")
	}

	return &Advisor{
		router:      deps.Router,
		normalizer:  deps.Normalizer,
		compactor:   deps.Compactor,
		prompts:     deps.Prompts,
		recommender: deps.Recommender,
		shop:        deps.Shop,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		config:      cfg,
	}
}

// Advise answers one shopper question.
func (a *Advisor) Advise(ctx context.Context, q catalog.UserQuery) (*Advice, error) {
	start := time.Now()
	log := a.logger.WithContext(ctx).WithOperation("advise")

	// Whitespace is a valid message: it yields no keywords and runs the broad tier only.
	if q.Message == "" {
		return nil, domain.ValidationError("Missing 'message' (string) in body.")
	}
	if a.recommender == nil {
		return nil, domain.InternalError("recommendation service not configured", nil)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	found, err := a.router.Search(ctx, q.Message)
	if err != nil {
		return nil, err
	}

	products := a.normalizer.Normalize(found.Records)
	payload := a.compactor.Compact(products)
	a.metrics.ObservePayloadSize(len(payload))

	user, err := a.prompts.UserTurn(q.Message, q.Context, payload)
	if err != nil {
		return nil, domain.InternalError("build prompt", err)
	}

	log.Debug().
		Tier(found.Tier).
		Int("products", len(payload)).
		Msg("Requesting recommendation")

	recStart := time.Now()
	text, err := a.recommender.Recommend(ctx, a.prompts.System(), user)
	a.metrics.ObserveRecommendation(time.Since(recStart), err)
	if err != nil {
		err = a.recommendationError(ctx, err)
		log.Error().Err(err).Msg("Recommendation failed")
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		log.Warn().Msg("Recommendation reply was empty")
		text = a.prompts.EmptyReply()
	}

	advice := &Advice{
		Text:     strings.TrimSpace(text),
		Keywords: found.Keywords,
		Tier:     found.Tier,
		Products: len(payload),
		Latency:  time.Since(start),
	}

	log.Info().
		Tier(advice.Tier).
		Int("products", advice.Products).
		Dur("latency", advice.Latency).
		Msg("Advice produced")

	return advice, nil
}

// Search runs the escalation for a product query and returns normalized items.
func (a *Advisor) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ValidationError("Missing ?query=term")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	found, err := a.router.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	products := a.normalizer.Normalize(found.Records)
	items := make([]ListedProduct, 0, len(products))
	for _, p := range products {
		items = append(items, ListedProduct{Product: p, Stock: retrieval.ClassifyProduct(p)})
	}

	return &SearchResult{
		Keywords: found.Keywords,
		Tier:     found.Tier,
		Query:    found.Query,
		Items:    items,
	}, nil
}

// Keywords returns the keywords a message would be searched with.
func (a *Advisor) Keywords(message string) catalog.KeywordSet {
	keywords, _ := a.router.Keywords(message)
	return keywords
}

// Ping fetches the catalog identity.
func (a *Advisor) Ping(ctx context.Context) (*catalog.ShopInfo, error) {
	if a.shop == nil {
		return nil, domain.CatalogError("catalog not configured", http.StatusServiceUnavailable, nil)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.shop.Shop(ctx)
}

func (a *Advisor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout > 0 {
		return context.WithTimeout(ctx, a.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// recommendationError keeps typed errors and classifies anything else.
func (a *Advisor) recommendationError(ctx context.Context, err error) error {
	if derr := domain.FromContext(ctx, "recommendation"); derr != nil {
		return derr
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.RecommendationError("recommendation failed", 0, "", err)
}
