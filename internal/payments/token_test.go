package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTokenRoundTrip(t *testing.T) {
	m := NewStateManager("test-secret", time.Hour)

	token, err := m.Sign("ABC234", "pay-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ABC234", claims.SessionCode)
	assert.Equal(t, "pay-1", claims.PaymentID)
}

func TestStateTokenRejection(t *testing.T) {
	m := NewStateManager("test-secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := m.Validate("")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewStateManager("other-secret", time.Hour)
		token, err := other.Sign("ABC234", "pay-1")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewStateManager("test-secret", -time.Minute)
		token, err := expired.Sign("ABC234", "pay-1")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := m.Sign("ABC234", "pay-1")
		require.NoError(t, err)

		_, err = m.Validate(token[:len(token)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestDemoMode(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		demo bool
	}{
		{"fully configured", Config{APIKey: "k", BaseURL: "https://pay.example.com", PriceID: "price_123"}, false},
		{"no api key", Config{BaseURL: "https://pay.example.com", PriceID: "price_123"}, true},
		{"no base url", Config{APIKey: "k", PriceID: "price_123"}, true},
		{"no price id", Config{APIKey: "k", BaseURL: "https://pay.example.com"}, true},
		{"product id instead of price id", Config{APIKey: "k", BaseURL: "https://pay.example.com", PriceID: "prod_123"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.demo, NewClient(c.cfg).DemoMode())
		})
	}
}
