package retrieval

import "github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"

// DefaultCompactionCap bounds the number of products sent to the model.
const DefaultCompactionCap = 50

// Compactor bounds and projects products for the recommendation prompt.
type Compactor struct {
	limit         int
	includeVendor bool
}

// NewCompactor creates a compactor. A non-positive cap uses DefaultCompactionCap.
func NewCompactor(limit int, includeVendor bool) *Compactor {
	if limit <= 0 {
		limit = DefaultCompactionCap
	}
	return &Compactor{limit: limit, includeVendor: includeVendor}
}

// Cap returns the configured payload bound.
func (c *Compactor) Cap() int {
	return c.limit
}

// Compact keeps the first Cap products in order. The result is never nil.
func (c *Compactor) Compact(products []catalog.Product) []catalog.CompactProduct {
	n := len(products)
	if n > c.limit {
		n = c.limit
	}

	out := make([]catalog.CompactProduct, 0, n)
	for _, p := range products[:n] {
		cp := catalog.CompactProduct{
			Title:       p.Title,
			Description: p.Description,
			Tags:        p.Tags,
			ProductType: p.ProductType,
			URL:         p.URL,
			Available:   p.Available,
			Quantity:    p.Quantity,
			Price:       p.Price,
		}
		if cp.Tags == nil {
			cp.Tags = []string{}
		}
		if c.includeVendor {
			cp.Vendor = p.Vendor
		}
		out = append(out, cp)
	}
	return out
}
