// Package genai implements the Gemini HTTP client used for receipt parsing
// and claim suggestions. Both call sites treat the model as an unreliable
// collaborator: every failure path here has a deterministic fallback at the
// caller (secondary model, demo receipt, or heuristic ranking).
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds the Gemini client configuration.
type Config struct {
	// APIKey enables the model-assisted paths. When empty, receipt parsing
	// returns the demo receipt and suggestion calls report ErrNoCredential.
	APIKey string

	// Model is the primary model for receipt parsing.
	Model string

	// FallbackModel is tried when the primary model fails for any reason.
	// It is also the model used for suggestion calls.
	FallbackModel string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string

	// Timeout bounds each model round trip.
	Timeout time.Duration
}

// Client talks to the Gemini generateContent API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	fallback   string
	baseURL    string
}

// NewClient creates a Gemini client. A client with an empty API key is
// valid: it serves the deterministic demo paths only.
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-pro"
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = "gemini-2.5-flash"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		fallback: fallback,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// part is one element of a generateContent request or response.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate sends one generateContent request and returns the concatenated
// text of the first candidate.
func (c *Client) generate(ctx context.Context, model string, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var text string
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += p.Text
		}
	}
	return text, nil
}
