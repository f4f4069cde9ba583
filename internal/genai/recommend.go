package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredential is returned by RecommendItems when no API key is
// configured. Callers fall through to their heuristic.
var ErrNoCredential = errors.New("no model credential configured")

// Favorite is one scored historical item name fed to the model.
type Favorite struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RecommendItems asks the model to match a diner's historical favorites to
// the current receipt's item names. It returns up to 10 recommended names.
// The response is parsed permissively: a bare JSON array, or the first
// bracketed array substring when the model wraps it in prose.
func (c *Client) RecommendItems(ctx context.Context, currentItems []string, claimedItemIDs []string, favorites []Favorite) ([]string, error) {
	if !c.Configured() {
		return nil, ErrNoCredential
	}

	itemsJSON, err := json.Marshal(currentItems)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}
	claimedJSON, err := json.Marshal(claimedItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claimed ids: %w", err)
	}
	favJSON, err := json.Marshal(favorites)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal favorites: %w", err)
	}

	prompt := strings.Join([]string{
		"You are helping match a diner's usual orders to items on the current receipt.",
		"Given the list of current receipt item names and the diner's historical favorites with scores,",
		"return up to 10 current item names you recommend for this diner, as a JSON array of strings,",
		"with exact matches to receipt item names when possible. Do not include items already claimed.",
		"",
		fmt.Sprintf("Current items: %s", itemsJSON),
		fmt.Sprintf("Already claimed item IDs: %s", claimedJSON),
		fmt.Sprintf("Historical favorites: %s", favJSON),
		"Output strictly JSON array of strings, nothing else.",
	}, "\n")

	text, err := c.generate(ctx, c.fallback, []part{{Text: prompt}})
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}

	names, err := parseNameArray(text)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// parseNameArray extracts a []string from model output, accepting a bare
// array or the first [...] substring.
func parseNameArray(text string) ([]string, error) {
	cleaned := stripCodeFence(text)

	var names []string
	if err := json.Unmarshal([]byte(cleaned), &names); err == nil {
		return names, nil
	}

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &names); err == nil {
			return names, nil
		}
	}

	return nil, &UpstreamError{Message: "model did not return a JSON array", Raw: text}
}
