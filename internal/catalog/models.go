// Package catalog holds the product data types shared by the storefront adapter,
// the retrieval core and the HTTP boundary.
package catalog

// UserQuery is one shopper question. Context is passed through to the model unmodified.
type UserQuery struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// KeywordSet is lowercase, deduplicated in first-seen order and free of stopwords.
type KeywordSet []string

// Tier identifies a step of the search escalation.
type Tier int

const (
	// TierNone means no tier produced results.
	TierNone Tier = 0
	// TierKeywords is the plain keyword query.
	TierKeywords Tier = 1
	// TierFields matches each keyword against title, tag, product type and vendor.
	TierFields Tier = 2
	// TierBroad lists any available product.
	TierBroad Tier = 3
)

// String returns the tier's short name.
func (t Tier) String() string {
	switch t {
	case TierKeywords:
		return "keywords"
	case TierFields:
		return "fields"
	case TierBroad:
		return "broad"
	default:
		return "none"
	}
}

// QueryExpression is the catalog search string issued for one tier.
type QueryExpression struct {
	Tier  Tier   `json:"tier"`
	Query string `json:"query"`
}

// Money is a catalog price.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// RawVariant is the subset of a catalog variant the normalizer reads.
type RawVariant struct {
	AvailableForSale  *bool  `json:"availableForSale"`
	QuantityAvailable *int   `json:"quantityAvailable"`
	Price             *Money `json:"price"`
}

// RawProduct is a catalog record as returned by the catalog service.
type RawProduct struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Handle           string       `json:"handle"`
	Vendor           string       `json:"vendor"`
	ProductType      string       `json:"productType"`
	Tags             []string     `json:"tags"`
	Description      string       `json:"description"`
	FeaturedImageURL string       `json:"featuredImageUrl,omitempty"`
	OnlineStoreURL   string       `json:"onlineStoreUrl,omitempty"`
	AvailableForSale *bool        `json:"availableForSale"`
	Variants         []RawVariant `json:"variants"`
}

// Product is a normalized catalog item. URL is always absolute.
type Product struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ProductType string   `json:"productType"`
	Vendor      string   `json:"vendor"`
	URL         string   `json:"url"`
	Image       *string  `json:"image"`
	Available   bool     `json:"available"`
	// Quantity is nil when the catalog reported no numeric stock.
	Quantity *int    `json:"qty"`
	Price    *string `json:"price"`
}

// AvailabilityTier is derived from a product's availability flag and quantity.
type AvailabilityTier string

const (
	InStock    AvailabilityTier = "in_stock"
	Limited    AvailabilityTier = "limited"
	OutOfStock AvailabilityTier = "out_of_stock"
)

// CompactProduct is the projection of a Product handed to the recommendation model.
type CompactProduct struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ProductType string   `json:"productType"`
	Vendor      string   `json:"vendor,omitempty"`
	URL         string   `json:"url"`
	Available   bool     `json:"available"`
	Quantity    *int     `json:"qty"`
	Price       *string  `json:"price"`
}

// ShopInfo is the catalog identity returned by the diagnostic ping.
type ShopInfo struct {
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain"`
}
