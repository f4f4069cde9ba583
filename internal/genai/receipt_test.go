package genai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceiptText(t *testing.T) {
	const receipt = `{"items":[{"name":"Burger","quantity":1,"unitPrice":9.99,"total":9.99}],"subtotal":9.99,"tax":0.80,"tip":0,"total":10.79,"currency":"USD"}`

	t.Run("bare JSON", func(t *testing.T) {
		parsed, err := parseReceiptText(receipt)
		require.NoError(t, err)
		require.Len(t, parsed.Items, 1)
		assert.Equal(t, "Burger", parsed.Items[0].Name)
		assert.InDelta(t, 10.79, parsed.Total, 0.001)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		parsed, err := parseReceiptText("```json\n" + receipt + "\n```")
		require.NoError(t, err)
		assert.InDelta(t, 9.99, parsed.Subtotal, 0.001)
	})

	t.Run("JSON buried in prose", func(t *testing.T) {
		parsed, err := parseReceiptText("Here is the receipt you asked for:\n" + receipt + "\nLet me know if you need anything else!")
		require.NoError(t, err)
		assert.InDelta(t, 0.80, parsed.Tax, 0.001)
	})

	t.Run("unusable output returns UpstreamError with the raw text", func(t *testing.T) {
		_, err := parseReceiptText("I could not read the image, sorry.")
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Contains(t, upstream.Raw, "could not read")
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "plain text", stripCodeFence("  plain text  "))
}

func TestParseNameArray(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		names, err := parseNameArray(`["Burger","Fries"]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"Burger", "Fries"}, names)
	})

	t.Run("array in prose", func(t *testing.T) {
		names, err := parseNameArray(`Based on their history I suggest ["Soda"] for this diner.`)
		require.NoError(t, err)
		assert.Equal(t, []string{"Soda"}, names)
	})

	t.Run("no array returns UpstreamError", func(t *testing.T) {
		_, err := parseNameArray("no suggestions")
		var upstream *UpstreamError
		assert.ErrorAs(t, err, &upstream)
	})
}

func TestParseReceiptDemoFallback(t *testing.T) {
	client := NewClient(Config{})
	require.False(t, client.Configured())

	parsed, model, err := client.ParseReceipt(context.Background(), []byte("fake"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "demo", model)
	assert.Equal(t, DemoReceipt(), parsed)

	// Demo parsing is deterministic.
	again, _, err := client.ParseReceipt(context.Background(), []byte("other bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, parsed, again)
}
