package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

type stubService struct{}

func (stubService) Advise(context.Context, catalog.UserQuery) (*advisor.Advice, error) {
	return &advisor.Advice{Text: "hello"}, nil
}

func (stubService) Search(context.Context, string) (*advisor.SearchResult, error) {
	return &advisor.SearchResult{}, nil
}

func (stubService) Ping(context.Context) (*catalog.ShopInfo, error) {
	return &catalog.ShopInfo{Name: "Tea Shop"}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(observability.NopLogger(), observability.NewMetrics("test"), stubService{}, AppConfig{
		AllowedOrigins: []string{"https://shop.example"},
		MetricsEnabled: true,
	})
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"status":"healthy"`},
		{"chat", http.MethodPost, "/api/chat", `{"message":"tee"}`, http.StatusOK, `"text":"hello"`},
		{"chat preflight", http.MethodOptions, "/api/chat", "", http.StatusOK, ""},
		{"chat wrong method", http.MethodGet, "/api/chat", "", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"products", http.MethodGet, "/api/products?query=tee", "", http.StatusOK, `"count":0`},
		{"products preflight", http.MethodOptions, "/api/products", "", http.StatusOK, ""},
		{"ping", http.MethodGet, "/api/ping", "", http.StatusOK, `"name":"Tea Shop"`},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "go_goroutines"},
		{"unknown", http.MethodGet, "/nope", "", http.StatusNotFound, ""},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_CORSPerRoute(t *testing.T) {
	router := newTestRouter()

	chat := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	chat.Header.Set("Origin", "https://elsewhere.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, chat)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	ping := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	ping.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, ping)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_TraceHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}
