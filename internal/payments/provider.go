// Package payments wraps the hosted payment provider. The core never owns
// payment state transitions: it creates checkout sessions, hands the diner a
// redirect URL, and reacts to the provider's success callback.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider is the narrow contract the core consumes from the hosted
// checkout service.
type Provider interface {
	// FindOrCreateCustomer ensures a customer record exists for the
	// requesting party (a shared guest identity, since there is no auth).
	FindOrCreateCustomer(ctx context.Context) error

	// CreateCheckoutSession creates a hosted checkout and returns the URL
	// the diner's browser should be redirected to.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// DemoMode reports whether the provider is unconfigured and checkout
	// should simulate immediate success instead of redirecting out.
	DemoMode() bool
}

// CheckoutParams describe one hosted checkout.
type CheckoutParams struct {
	PriceID    string `json:"priceId"`
	Quantity   int    `json:"quantity"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// CheckoutSession is the provider's created checkout.
type CheckoutSession struct {
	URL string `json:"url"`
}

// Config holds provider credentials and endpoints.
type Config struct {
	APIKey  string
	BaseURL string
	// PriceID is the provider price used for one-time payments. A value
	// that looks like a product id (prod_ prefix) is treated as
	// misconfigured and forces demo mode.
	PriceID string
	Timeout time.Duration
}

// Client is the HTTP implementation of Provider.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	priceID    string
}

var _ Provider = (*Client)(nil)

// NewClient creates a provider client. Missing credentials are allowed and
// put the client in demo mode.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		priceID: cfg.PriceID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PriceID returns the configured price id.
func (c *Client) PriceID() string {
	return c.priceID
}

// DemoMode reports whether checkout should be simulated: no API key, no
// base URL, no price id, or a price id that is actually a product id.
func (c *Client) DemoMode() bool {
	if c.apiKey == "" || c.baseURL == "" || c.priceID == "" {
		return true
	}
	return strings.HasPrefix(c.priceID, "prod_")
}

// FindOrCreateCustomer ensures the shared guest customer exists.
func (c *Client) FindOrCreateCustomer(ctx context.Context) error {
	body := map[string]any{
		"externalId": "guest",
		"name":       "Guest",
		"email":      "guest@example.com",
	}
	var out json.RawMessage
	if err := c.post(ctx, "/customers/find-or-create", body, &out); err != nil {
		return fmt.Errorf("find-or-create customer: %w", err)
	}
	return nil
}

// CreateCheckoutSession creates a hosted checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.Quantity <= 0 {
		params.Quantity = 1
	}
	var session CheckoutSession
	if err := c.post(ctx, "/checkout-sessions", params, &session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("create checkout session: provider returned no url")
	}
	return &session, nil
}

// post sends one JSON request to the provider API.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
