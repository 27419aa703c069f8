package retrieval

import (
	"testing"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestNormalizer_ProductURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      NormalizerConfig
		record   catalog.RawProduct
		expected string
	}{
		{
			name:     "canonical url wins",
			cfg:      NormalizerConfig{FrontendBaseURL: "https://other.example"},
			record:   catalog.RawProduct{Handle: "teapot", OnlineStoreURL: "https://shop.example/products/teapot-canonical"},
			expected: "https://shop.example/products/teapot-canonical",
		},
		{
			name:     "frontend base when canonical missing",
			cfg:      NormalizerConfig{FrontendBaseURL: "https://shop.example"},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://shop.example/products/teapot",
		},
		{
			name:     "frontend base trailing slash trimmed",
			cfg:      NormalizerConfig{FrontendBaseURL: "https://shop.example/"},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://shop.example/products/teapot",
		},
		{
			name:     "relative canonical ignored",
			cfg:      NormalizerConfig{FrontendBaseURL: "https://shop.example"},
			record:   catalog.RawProduct{Handle: "teapot", OnlineStoreURL: "/products/teapot"},
			expected: "https://shop.example/products/teapot",
		},
		{
			name: "public origin preferred among allowed origins",
			cfg: NormalizerConfig{
				AllowedOrigins: []string{"*", "https://admin.example", "https://shop.example"},
				PublicOrigin:   "https://shop.example",
			},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://shop.example/products/teapot",
		},
		{
			name:     "first absolute allowed origin",
			cfg:      NormalizerConfig{AllowedOrigins: []string{"*", "https://shop.example", "https://b.example"}},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://shop.example/products/teapot",
		},
		{
			name: "shop domain with public suffix",
			cfg: NormalizerConfig{
				AllowedOrigins:     []string{"*"},
				ShopDomain:         "dianas-laden.myshopify.com",
				AdminDomainSuffix:  ".myshopify.com",
				PublicDomainSuffix: ".store",
			},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://dianas-laden.store/products/teapot",
		},
		{
			name: "shop domain unchanged without public suffix",
			cfg: NormalizerConfig{
				ShopDomain:        "dianas-laden.myshopify.com",
				AdminDomainSuffix: ".myshopify.com",
			},
			record:   catalog.RawProduct{Handle: "teapot"},
			expected: "https://dianas-laden.myshopify.com/products/teapot",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewNormalizer(tc.cfg).Normalize([]catalog.RawProduct{tc.record})
			require.Len(t, got, 1)
			assert.Equal(t, tc.expected, got[0].URL)
		})
	}
}

func TestNormalizer_VariantSelection(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{FrontendBaseURL: "https://shop.example"})

	tests := []struct {
		name      string
		record    catalog.RawProduct
		available bool
		quantity  *int
		price     *string
	}{
		{
			name: "first variant supplies stock and price",
			record: catalog.RawProduct{
				AvailableForSale: boolPtr(false),
				Variants: []catalog.RawVariant{
					{AvailableForSale: boolPtr(true), QuantityAvailable: intPtr(7), Price: &catalog.Money{Amount: "12.90", CurrencyCode: "EUR"}},
					{AvailableForSale: boolPtr(false), QuantityAvailable: intPtr(0)},
				},
			},
			available: true,
			quantity:  intPtr(7),
			price:     strPtr("12.90 EUR"),
		},
		{
			name: "variant without flag falls back to product flag",
			record: catalog.RawProduct{
				AvailableForSale: boolPtr(false),
				Variants:         []catalog.RawVariant{{QuantityAvailable: intPtr(3)}},
			},
			available: false,
			quantity:  intPtr(3),
		},
		{
			name:      "no variants uses product flag and unknown quantity",
			record:    catalog.RawProduct{AvailableForSale: boolPtr(true)},
			available: true,
		},
		{
			name:      "no signal at all defaults to available",
			record:    catalog.RawProduct{},
			available: true,
		},
		{
			name: "oversold stock clamped to zero",
			record: catalog.RawProduct{
				Variants: []catalog.RawVariant{{AvailableForSale: boolPtr(true), QuantityAvailable: intPtr(-4)}},
			},
			available: true,
			quantity:  intPtr(0),
		},
		{
			name: "price without amount is absent",
			record: catalog.RawProduct{
				Variants: []catalog.RawVariant{{Price: &catalog.Money{CurrencyCode: "EUR"}}},
			},
			available: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Normalize([]catalog.RawProduct{tc.record})
			require.Len(t, got, 1)
			assert.Equal(t, tc.available, got[0].Available)
			assert.Equal(t, tc.quantity, got[0].Quantity)
			assert.Equal(t, tc.price, got[0].Price)
		})
	}
}

func TestNormalizer_FieldsAndOrder(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{FrontendBaseURL: "https://shop.example"})
	records := []catalog.RawProduct{
		{Title: "Teekanne", Handle: "teapot", Vendor: "Kloster", ProductType: "Küche", Tags: []string{"tee"}, Description: "Gusseisen", FeaturedImageURL: "https://cdn.example/t.jpg"},
		{Title: "Honig", Handle: "honey"},
	}

	got := n.Normalize(records)
	require.Len(t, got, 2)

	assert.Equal(t, "Teekanne", got[0].Title)
	assert.Equal(t, "Kloster", got[0].Vendor)
	assert.Equal(t, "Küche", got[0].ProductType)
	assert.Equal(t, []string{"tee"}, got[0].Tags)
	assert.Equal(t, "Gusseisen", got[0].Description)
	require.NotNil(t, got[0].Image)
	assert.Equal(t, "https://cdn.example/t.jpg", *got[0].Image)

	assert.Equal(t, "Honig", got[1].Title)
	assert.Nil(t, got[1].Image)
	assert.Equal(t, []string{}, got[1].Tags)

	assert.NotNil(t, n.Normalize(nil))
	assert.Empty(t, n.Normalize(nil))
}

func strPtr(s string) *string { return &s }
