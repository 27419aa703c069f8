// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/cmd/storefront-advisor-api/handlers"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/cmd/storefront-advisor-api/middleware"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// AppConfig holds router settings.
type AppConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	MetricsEnabled bool
	// Storefront endpoint and domain reported by /api/ping.
	Endpoint string
	Domain   string
}

// Service is everything the routes need from the advisor.
type Service interface {
	handlers.Advisor
	handlers.Searcher
	handlers.Pinger
}

var _ Service = (*advisor.Advisor)(nil)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, metrics *observability.Metrics, svc Service, cfg AppConfig) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(middleware.RequestLogger(logger, metrics))
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"ok":false,"error":"Method Not Allowed"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"storefront-advisor"}`))
	})

	if cfg.MetricsEnabled && metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	chatHandler := handlers.NewChatHandler(logger, svc)
	productsHandler := handlers.NewProductsHandler(logger, svc)
	pingHandler := handlers.NewPingHandler(logger, svc, cfg.Endpoint, cfg.Domain)

	// The chat route honours the origin allow-list; the diagnostic routes are open.
	chatCORS := middleware.CORS(cfg.AllowedOrigins, http.MethodPost)
	openCORS := middleware.CORS([]string{"*"}, http.MethodGet)

	r.Route("/api", func(r chi.Router) {
		r.With(chatCORS).Post("/chat", chatHandler.Chat)
		r.With(chatCORS).Options("/chat", chatHandler.Chat)

		r.With(openCORS).Get("/products", productsHandler.Search)
		r.With(openCORS).Options("/products", productsHandler.Search)

		r.With(openCORS).Get("/ping", pingHandler.Ping)
		r.With(openCORS).Options("/ping", pingHandler.Ping)
	})

	return r
}
