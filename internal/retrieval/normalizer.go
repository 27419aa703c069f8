package retrieval

import (
	"net/url"
	"strings"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
)

// NormalizerConfig holds the settings used to build absolute product links.
type NormalizerConfig struct {
	// FrontendBaseURL is the preferred prefix for products without a canonical URL.
	FrontendBaseURL string
	// AllowedOrigins is consulted when FrontendBaseURL is empty.
	AllowedOrigins []string
	// PublicOrigin picks the storefront among AllowedOrigins.
	PublicOrigin       string
	ShopDomain         string
	AdminDomainSuffix  string
	PublicDomainSuffix string
}

// Normalizer maps raw catalog records to Products.
type Normalizer struct {
	base string
}

// NewNormalizer resolves the link base once; it does not change per request.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{base: resolveLinkBase(cfg)}
}

// LinkBase returns the prefix used for products without a canonical URL.
func (n *Normalizer) LinkBase() string {
	return n.base
}

// Normalize converts records in order. The result is never nil.
func (n *Normalizer) Normalize(records []catalog.RawProduct) []catalog.Product {
	products := make([]catalog.Product, 0, len(records))
	for _, r := range records {
		products = append(products, n.normalizeOne(r))
	}
	return products
}

func (n *Normalizer) normalizeOne(r catalog.RawProduct) catalog.Product {
	p := catalog.Product{
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		ProductType: r.ProductType,
		Vendor:      r.Vendor,
		URL:         n.productURL(r),
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if r.FeaturedImageURL != "" {
		img := r.FeaturedImageURL
		p.Image = &img
	}

	var variant *catalog.RawVariant
	if len(r.Variants) > 0 {
		variant = &r.Variants[0]
	}

	// Availability: variant flag, then product flag, then true.
	p.Available = true
	switch {
	case variant != nil && variant.AvailableForSale != nil:
		p.Available = *variant.AvailableForSale
	case r.AvailableForSale != nil:
		p.Available = *r.AvailableForSale
	}

	if variant != nil {
		if variant.QuantityAvailable != nil {
			qty := *variant.QuantityAvailable
			if qty < 0 {
				qty = 0
			}
			p.Quantity = &qty
		}
		if variant.Price != nil && variant.Price.Amount != "" {
			price := strings.TrimSpace(variant.Price.Amount + " " + variant.Price.CurrencyCode)
			p.Price = &price
		}
	}

	return p
}

func (n *Normalizer) productURL(r catalog.RawProduct) string {
	if isAbsoluteHTTP(r.OnlineStoreURL) {
		return r.OnlineStoreURL
	}
	return n.base + "/products/" + r.Handle
}

// resolveLinkBase applies the fallback chain: frontend base, allowed origins, shop domain.
func resolveLinkBase(cfg NormalizerConfig) string {
	if isAbsoluteHTTP(cfg.FrontendBaseURL) {
		return strings.TrimRight(cfg.FrontendBaseURL, "/")
	}

	if cfg.PublicOrigin != "" && isAbsoluteHTTP(cfg.PublicOrigin) {
		for _, o := range cfg.AllowedOrigins {
			if strings.TrimRight(o, "/") == strings.TrimRight(cfg.PublicOrigin, "/") {
				return strings.TrimRight(o, "/")
			}
		}
	}
	for _, o := range cfg.AllowedOrigins {
		if isAbsoluteHTTP(o) {
			return strings.TrimRight(o, "/")
		}
	}

	domain := strings.TrimSpace(cfg.ShopDomain)
	if cfg.PublicDomainSuffix != "" && cfg.AdminDomainSuffix != "" && strings.HasSuffix(domain, cfg.AdminDomainSuffix) {
		domain = strings.TrimSuffix(domain, cfg.AdminDomainSuffix) + cfg.PublicDomainSuffix
	}
	return "https://" + domain
}

func isAbsoluteHTTP(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
