package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/splitsmart/internal/cache"
	"github.com/splitsmart/splitsmart/internal/genai"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/payments"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/service"
	"github.com/splitsmart/splitsmart/internal/storage/sqlite"
	"github.com/splitsmart/splitsmart/internal/suggest"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithParser(t, genai.NewClient(genai.Config{}))
}

func newTestRouterWithParser(t *testing.T, parser ReceiptParser) http.Handler {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitsmart-http-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hub := realtime.NewHub()
	memory := cache.NewMemory()
	state := payments.NewStateManager("test-secret", time.Hour)
	provider := payments.NewClient(payments.Config{})
	gemini := genai.NewClient(genai.Config{})

	sessions := service.NewSessionService(store, hub)
	claims := service.NewClaimService(store, hub, memory)
	suggestions := service.NewSuggestionService(store, suggest.New(store, gemini), memory)
	checkout := service.NewCheckoutService(store, provider, state, hub, "http://localhost:8080", "")

	return NewRouter(NewHandlers(sessions, claims, suggestions, checkout, parser, hub))
}

// stubParser stands in for a credentialed vision client, so the image
// validation paths run instead of the demo short-circuit.
type stubParser struct{}

func (stubParser) Configured() bool { return true }

func (stubParser) ParseReceipt(_ context.Context, _ []byte, _ string) (models.ParsedReceipt, string, error) {
	return genai.DemoReceipt(), "stub", nil
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func seedSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]string{"currency": "USD"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &session)
	require.NotEmpty(t, session.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/sessions/"+session.Code+"/items", genai.DemoReceipt())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return session.Code
}

func joinAs(t *testing.T, router http.Handler, code, name string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/participants", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &p)
	return p.ID
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	router := newTestRouter(t)
	code := seedSession(t, router)

	t.Run("get session returns items and totals", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/sessions/"+code, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Session struct {
				Totals struct {
					TotalCents int64 `json:"total_cents"`
				} `json:"totals"`
			} `json:"session"`
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
		}
		decodeBody(t, rec, &body)
		assert.Len(t, body.Items, 3)
		assert.Equal(t, int64(1926), body.Session.Totals.TotalCents)
	})

	t.Run("unknown session is a 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/sessions/ZZZZ99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+code+"/participants", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body joins anonymously", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/participants", nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var p struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		decodeBody(t, rec, &p)
		assert.NotEmpty(t, p.ID)
		assert.Empty(t, p.Name)
	})
}

func TestClaimFlow(t *testing.T) {
	router := newTestRouter(t)
	code := seedSession(t, router)
	alice := joinAs(t, router, code, "Alice")

	var session struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	rec := doJSON(t, router, http.MethodGet, "/api/sessions/"+code, nil)
	decodeBody(t, rec, &session)
	itemID := session.Items[0].ID

	t.Run("toggle adds then removes", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/claims",
			map[string]any{"itemId": itemID, "participantId": alice})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Added bool `json:"added"`
		}
		decodeBody(t, rec, &body)
		assert.True(t, body.Added)

		rec = doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/claims",
			map[string]any{"itemId": itemID, "participantId": alice})
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &body)
		assert.False(t, body.Added)
	})

	t.Run("missing item id is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/claims",
			map[string]any{"participantId": alice})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("participant shares reflect claims", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/claims",
			map[string]any{"itemId": itemID, "participantId": alice})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/api/sessions/"+code+"/participants", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Participants []struct {
				Name       string `json:"name"`
				TotalCents int64  `json:"total_cents"`
			} `json:"participants"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Participants, 1)
		assert.Equal(t, "Alice", body.Participants[0].Name)
		assert.Equal(t, int64(1204), body.Participants[0].TotalCents)
	})
}

func TestSuggestionsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	code := seedSession(t, router)
	alice := joinAs(t, router, code, "Alice")

	rec := doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/sessions/%s/suggestions?participantId=%s", code, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ItemIDs []string `json:"itemIds"`
		Source  string   `json:"source"`
	}
	decodeBody(t, rec, &body)
	assert.Empty(t, body.ItemIDs, "no history for a first-time diner")

	t.Run("missing participantId is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/sessions/"+code+"/suggestions", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckoutEndpoint(t *testing.T) {
	router := newTestRouter(t)
	code := seedSession(t, router)
	alice := joinAs(t, router, code, "Alice")

	var session struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	rec := doJSON(t, router, http.MethodGet, "/api/sessions/"+code, nil)
	decodeBody(t, rec, &session)

	rec = doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/claims",
		map[string]any{"itemId": session.Items[0].ID, "participantId": alice})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/checkout",
		map[string]string{"participantId": alice})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		URL         string `json:"url"`
		Demo        bool   `json:"demo"`
		AmountCents int64  `json:"amount_cents"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Demo)
	assert.Equal(t, int64(1204), body.AmountCents)
	assert.Contains(t, body.URL, "/s/"+code)
}

func TestParseReceiptEndpoint(t *testing.T) {
	t.Run("demo mode needs no image at all", func(t *testing.T) {
		router := newTestRouter(t)
		rec := doJSON(t, router, http.MethodPost, "/api/parse-receipt", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Model   string `json:"model"`
			Receipt struct {
				Total float64 `json:"total"`
			} `json:"receipt"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, "demo", body.Model)
		assert.InDelta(t, 19.26, body.Receipt.Total, 0.001)
	})

	router := newTestRouterWithParser(t, stubParser{})

	t.Run("JSON data URL body", func(t *testing.T) {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
		rec := doJSON(t, router, http.MethodPost, "/api/parse-receipt", map[string]string{"dataUrl": dataURL})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Model string `json:"model"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, "stub", body.Model)
	})

	t.Run("raw base64 body", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/parse-receipt", map[string]string{
			"imageBase64": base64.StdEncoding.EncodeToString([]byte("fake")),
			"mimeType":    "image/png",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing image is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/parse-receipt", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid base64 is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/parse-receipt", map[string]string{"imageBase64": "!!!"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentSuccessRejectsBadState(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/pay/success?state=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
