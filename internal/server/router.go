package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every API route through the logging, metrics, and CORS
// middleware chain.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", h.listSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}", h.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}/items", h.replaceItems).Methods(http.MethodPut, http.MethodPost)

	api.HandleFunc("/sessions/{code}/participants", h.joinSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{code}/participants", h.listParticipants).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}/participants/{participantID}", h.setParticipantPaid).Methods(http.MethodPatch)

	api.HandleFunc("/sessions/{code}/host", h.getHost).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}/host", h.setHost).Methods(http.MethodPut)

	api.HandleFunc("/sessions/{code}/claims", h.toggleClaim).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{code}/claims", h.listClaims).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{code}/suggestions", h.getSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{code}/checkout", h.startCheckout).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{code}/events", h.streamEvents).Methods(http.MethodGet)

	api.HandleFunc("/parse-receipt", h.parseReceipt).Methods(http.MethodPost)
	api.HandleFunc("/pay/success", h.paymentSuccess).Methods(http.MethodGet)

	r.Use(loggingMiddleware, metricsMiddleware)

	// CORS wraps the router itself so OPTIONS preflights are answered even
	// for routes registered with narrower method matchers.
	return corsMiddleware(r)
}
