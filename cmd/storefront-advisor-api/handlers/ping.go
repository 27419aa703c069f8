package handlers

import (
	"context"
	"net/http"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// Pinger fetches the catalog identity.
type Pinger interface {
	Ping(ctx context.Context) (*catalog.ShopInfo, error)
}

// PingHandler serves GET /api/ping.
type PingHandler struct {
	logger   *observability.Logger
	pinger   Pinger
	endpoint string
	domain   string
}

// NewPingHandler creates a ping handler reporting the given storefront endpoint and domain.
func NewPingHandler(logger *observability.Logger, p Pinger, endpoint, domain string) *PingHandler {
	return &PingHandler{logger: logger, pinger: p, endpoint: endpoint, domain: domain}
}

// ShopDTO is the catalog identity.
type ShopDTO struct {
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain"`
}

// PingResponseDTO represents the ping response.
type PingResponseDTO struct {
	OK       bool    `json:"ok"`
	Status   int     `json:"status"`
	Endpoint string  `json:"endpoint"`
	Domain   string  `json:"domain"`
	Shop     ShopDTO `json:"shop"`
}

// Ping checks the storefront connection.
func (h *PingHandler) Ping(w http.ResponseWriter, r *http.Request) {
	shop, err := h.pinger.Ping(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PingResponseDTO{
		OK:       true,
		Status:   http.StatusOK,
		Endpoint: h.endpoint,
		Domain:   h.domain,
		Shop:     ShopDTO{Name: shop.Name, PrimaryDomain: shop.PrimaryDomain},
	})
}
