package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/splitsmart/splitsmart/internal/models"
)

// UpstreamError reports that the model returned output we could not use.
// The raw model text is attached for diagnosis.
type UpstreamError struct {
	Message string
	Raw     string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

const receiptPrompt = `You are parsing a restaurant receipt. Extract a strict JSON object with this schema:
{
  "items": [
    {"name": string, "quantity": number, "unitPrice": number, "total": number}
  ],
  "subtotal": number,
  "tax": number,
  "tip": number,
  "total": number,
  "currency": string
}
Rules:
- Return ONLY valid JSON. No markdown fences. No commentary.
- If something is missing, use 0 for numbers and omit unknown optional fields.
- Ensure items totals and sum relationships are consistent: subtotal + tax + tip = total.
`

// DemoReceipt is the fixed receipt returned when no API key is configured,
// so the rest of the system stays testable without external credentials.
func DemoReceipt() models.ParsedReceipt {
	return models.ParsedReceipt{
		Items: []models.ParsedItem{
			{Name: "Burger", Quantity: 1, UnitPrice: 9.99, Total: 9.99},
			{Name: "Fries", Quantity: 1, UnitPrice: 3.49, Total: 3.49},
			{Name: "Soda", Quantity: 1, UnitPrice: 2.50, Total: 2.50},
		},
		Subtotal: 15.98,
		Tax:      1.28,
		Tip:      2.00,
		Total:    19.26,
		Currency: "USD",
	}
}

// ParseReceipt extracts structured line items from a receipt image. Without
// a credential it returns DemoReceipt. The primary model is tried first and
// the fallback model on any primary failure; the primary's error is never
// surfaced unless the fallback also fails.
func (c *Client) ParseReceipt(ctx context.Context, image []byte, mimeType string) (models.ParsedReceipt, string, error) {
	if !c.Configured() {
		return DemoReceipt(), "demo", nil
	}

	parts := []part{
		{Text: receiptPrompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}

	modelUsed := c.model
	text, err := c.generate(ctx, c.model, parts)
	if err != nil {
		modelUsed = c.fallback
		text, err = c.generate(ctx, c.fallback, parts)
		if err != nil {
			return models.ParsedReceipt{}, modelUsed, fmt.Errorf("receipt parse failed on both models: %w", err)
		}
	}

	parsed, perr := parseReceiptText(text)
	if perr != nil {
		return models.ParsedReceipt{}, modelUsed, perr
	}
	return parsed, modelUsed, nil
}

// parseReceiptText turns model output into a ParsedReceipt, tolerating code
// fences and surrounding prose: fenced block first, then a bare parse, then
// the first {...} substring.
func parseReceiptText(text string) (models.ParsedReceipt, error) {
	body := stripCodeFence(text)

	var parsed models.ParsedReceipt
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return parsed, nil
	}

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &parsed); err == nil {
			return parsed, nil
		}
	}

	return models.ParsedReceipt{}, &UpstreamError{
		Message: "model did not return parseable JSON",
		Raw:     text,
	}
}

// stripCodeFence removes a surrounding ```json ... ``` wrapper if present.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
