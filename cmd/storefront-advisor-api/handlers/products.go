package handlers

import (
	"context"
	"net/http"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// Searcher runs a product search.
type Searcher interface {
	Search(ctx context.Context, query string) (*advisor.SearchResult, error)
}

// ProductsHandler serves GET /api/products.
type ProductsHandler struct {
	logger   *observability.Logger
	searcher Searcher
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(logger *observability.Logger, s Searcher) *ProductsHandler {
	return &ProductsHandler{logger: logger, searcher: s}
}

// ProductDTO is one search hit.
type ProductDTO struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Image     *string `json:"image"`
	Available bool    `json:"available"`
	Quantity  *int    `json:"quantity"`
	Price     *string `json:"price"`
	Stock     string  `json:"stock"`
}

// ProductsResponseDTO represents the search response.
type ProductsResponseDTO struct {
	OK    bool         `json:"ok"`
	Count int          `json:"count"`
	Items []ProductDTO `json:"items"`
}

// Search handles ?query=term.
func (h *ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items := make([]ProductDTO, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, ProductDTO{
			Title:     p.Title,
			URL:       p.URL,
			Image:     p.Image,
			Available: p.Available,
			Quantity:  p.Quantity,
			Price:     p.Price,
			Stock:     string(p.Stock),
		})
	}

	writeJSON(w, http.StatusOK, ProductsResponseDTO{OK: true, Count: len(items), Items: items})
}
