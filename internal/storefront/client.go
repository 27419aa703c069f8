// Package storefront is the catalog collaborator: a Shopify Storefront GraphQL client.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// errRateWait marks attempts that never left the client because the limiter gave up.
var errRateWait = errors.New("rate limiter wait")

// TokenHeader carries the storefront access token.
const TokenHeader = "X-Shopify-Storefront-Access-Token"

const searchProductsQuery = `query SearchProducts($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        handle
        vendor
        productType
        tags
        description(truncateAt: 200)
        featuredImage { url altText }
        availableForSale
        variants(first: 1) {
          edges {
            node {
              availableForSale
              quantityAvailable
              price { amount currencyCode }
            }
          }
        }
        onlineStoreUrl
      }
    }
  }
}`

const shopQuery = `query { shop { name primaryDomain { url } } }`

// Config holds storefront client configuration.
type Config struct {
	Domain     string // e.g. my-shop.myshopify.com
	Token      string
	APIVersion string // Default: 2024-07
	Timeout    time.Duration
	// RateLimit is requests per second. 0 disables client-side limiting.
	RateLimit float64
	RateBurst int
	Retry     RetryConfig
	// Endpoint overrides the URL derived from Domain and APIVersion.
	Endpoint string
}

// Client queries the Storefront GraphQL API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	limiter    *rate.Limiter
	retry      RetryConfig
	logger     *observability.Logger
}

// NewClient creates a storefront client. Domain and Token are required.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Domain) == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("storefront domain is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("storefront token is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-07"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", strings.TrimSpace(cfg.Domain), cfg.APIVersion)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		token:      cfg.Token,
		limiter:    limiter,
		retry:      cfg.Retry.withDefaults(),
		logger:     logger,
	}, nil
}

// Endpoint returns the GraphQL URL this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse[T any] struct {
	Data   *T             `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type productsData struct {
	Products struct {
		Edges []struct {
			Node productNode `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type productNode struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Handle        string   `json:"handle"`
	Vendor        string   `json:"vendor"`
	ProductType   string   `json:"productType"`
	Tags          []string `json:"tags"`
	Description   string   `json:"description"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	AvailableForSale *bool `json:"availableForSale"`
	Variants         struct {
		Edges []struct {
			Node catalog.RawVariant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	OnlineStoreURL *string `json:"onlineStoreUrl"`
}

type shopData struct {
	Shop struct {
		Name          string `json:"name"`
		PrimaryDomain struct {
			URL string `json:"url"`
		} `json:"primaryDomain"`
	} `json:"shop"`
}

// Search returns up to first products matching query, in catalog relevance order.
func (c *Client) Search(ctx context.Context, query string, first int) ([]catalog.RawProduct, error) {
	var data productsData
	err := c.do(ctx, graphQLRequest{
		Query:     searchProductsQuery,
		Variables: map[string]any{"query": query, "first": first},
	}, &data)
	if err != nil {
		return nil, err
	}

	records := make([]catalog.RawProduct, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		records = append(records, edge.Node.toRaw())
	}
	return records, nil
}

// Shop returns the catalog identity.
func (c *Client) Shop(ctx context.Context) (*catalog.ShopInfo, error) {
	var data shopData
	if err := c.do(ctx, graphQLRequest{Query: shopQuery}, &data); err != nil {
		return nil, err
	}
	return &catalog.ShopInfo{
		Name:          data.Shop.Name,
		PrimaryDomain: data.Shop.PrimaryDomain.URL,
	}, nil
}

func (n productNode) toRaw() catalog.RawProduct {
	r := catalog.RawProduct{
		ID:               n.ID,
		Title:            n.Title,
		Handle:           n.Handle,
		Vendor:           n.Vendor,
		ProductType:      n.ProductType,
		Tags:             n.Tags,
		Description:      n.Description,
		AvailableForSale: n.AvailableForSale,
	}
	if n.FeaturedImage != nil {
		r.FeaturedImageURL = n.FeaturedImage.URL
	}
	if n.OnlineStoreURL != nil {
		r.OnlineStoreURL = *n.OnlineStoreURL
	}
	for _, e := range n.Variants.Edges {
		r.Variants = append(r.Variants, e.Node)
	}
	return r
}

// do posts a GraphQL request and decodes its data into out.
func (c *Client) do(ctx context.Context, gql graphQLRequest, out any) error {
	body, err := json.Marshal(gql)
	if err != nil {
		return domain.InternalError("marshal storefront request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		// Every attempt, retries included, takes a limiter token.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", errRateWait, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(TokenHeader, c.token)
		return c.httpClient.Do(req)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if derr := domain.FromContext(ctx, "storefront request"); derr != nil {
				return derr
			}
		}
		if errors.Is(err, errRateWait) {
			return domain.CatalogError("storefront rate limit", 0, err)
		}
		return domain.CatalogError("storefront request failed", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CatalogError("read storefront response", 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.CatalogError(
			fmt.Sprintf("storefront returned HTTP %d", resp.StatusCode),
			resp.StatusCode,
			fmt.Errorf("%s", truncate(string(respBody), 300)),
		)
	}

	envelope := graphQLResponse[json.RawMessage]{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return domain.CatalogError("decode storefront response", 0, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return domain.CatalogError("storefront query error", 0, errors.New(strings.Join(msgs, "; ")))
	}
	if envelope.Data == nil {
		return domain.CatalogError("storefront response has no data", 0, nil)
	}

	if err := json.Unmarshal(*envelope.Data, out); err != nil {
		return domain.CatalogError("decode storefront data", 0, err)
	}
	return nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
