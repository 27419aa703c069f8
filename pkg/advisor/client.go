// Package advisor provides the public Go SDK for the Storefront Advisor API.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TraceHeader is sent with every request and echoed by the server.
const TraceHeader = "X-Trace-ID"

// Client is the public SDK client for the Storefront Advisor API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	// Timeout bounds each request. Defaults to 60s, above the server's advice timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Storefront Advisor client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Details    string `json:"details,omitempty"`
	TraceID    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("storefront advisor: HTTP %d %s", e.StatusCode, e.Code)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// AskRequest is a shopper question.
type AskRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// AskResponse is the advisor's answer.
type AskResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// Product is one search hit.
type Product struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Image     *string `json:"image"`
	Available bool    `json:"available"`
	Quantity  *int    `json:"quantity"`
	Price     *string `json:"price"`
	// Stock is in_stock, limited or out_of_stock.
	Stock string `json:"stock"`
}

// SearchResponse is the product search result.
type SearchResponse struct {
	OK    bool      `json:"ok"`
	Count int       `json:"count"`
	Items []Product `json:"items"`
}

// Shop is the catalog identity.
type Shop struct {
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain"`
}

// PingResponse reports the storefront connection.
type PingResponse struct {
	OK       bool   `json:"ok"`
	Status   int    `json:"status"`
	Endpoint string `json:"endpoint"`
	Domain   string `json:"domain"`
	Shop     Shop   `json:"shop"`
}

// Ask sends a shopper question to POST /api/chat.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs GET /api/products?query=term.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	var resp SearchResponse
	path := "/api/products?" + url.Values{"query": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping runs GET /api/ping.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var resp PingResponse
	if err := c.do(ctx, http.MethodGet, "/api/ping", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	traceID := uuid.NewString()
	req.Header.Set(TraceHeader, traceID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, TraceID: traceID}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
