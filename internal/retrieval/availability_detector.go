package retrieval

import "github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"

// LimitedStockThreshold is the highest quantity still reported as limited.
const LimitedStockThreshold = 5

// ClassifyAvailability derives the stock tier. A false flag wins over any quantity.
func ClassifyAvailability(available bool, quantity *int) catalog.AvailabilityTier {
	if !available {
		return catalog.OutOfStock
	}
	if quantity == nil {
		return catalog.InStock
	}

	switch q := *quantity; {
	case q > LimitedStockThreshold:
		return catalog.InStock
	case q >= 1:
		return catalog.Limited
	default:
		return catalog.OutOfStock
	}
}

// ClassifyProduct is ClassifyAvailability for a normalized product.
func ClassifyProduct(p catalog.Product) catalog.AvailabilityTier {
	return ClassifyAvailability(p.Available, p.Quantity)
}

// availabilityLabels are the shopper-facing names of each tier, by locale.
var availabilityLabels = map[string]map[catalog.AvailabilityTier]string{
	"de": {
		catalog.InStock:    "✅ Auf Lager",
		catalog.Limited:    "⚠️ Begrenzt",
		catalog.OutOfStock: "❌ Nicht verfügbar",
	},
	"en": {
		catalog.InStock:    "✅ In stock",
		catalog.Limited:    "⚠️ Limited",
		catalog.OutOfStock: "❌ Unavailable",
	},
}

// AvailabilityLabel returns the localized label for tier ("de" when the locale is unknown).
func AvailabilityLabel(locale string, tier catalog.AvailabilityTier) string {
	labels, ok := availabilityLabels[locale]
	if !ok {
		labels = availabilityLabels["de"]
	}
	return labels[tier]
}
