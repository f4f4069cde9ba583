package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/service"
)

// Handlers holds the service dependencies behind the HTTP API.
type Handlers struct {
	sessions    *service.SessionService
	claims      *service.ClaimService
	suggestions *service.SuggestionService
	checkout    *service.CheckoutService
	receipts    ReceiptParser
	hub         *realtime.Hub
}

func NewHandlers(
	sessions *service.SessionService,
	claims *service.ClaimService,
	suggestions *service.SuggestionService,
	checkout *service.CheckoutService,
	receipts ReceiptParser,
	hub *realtime.Hub,
) *Handlers {
	return &Handlers{
		sessions:    sessions,
		claims:      claims,
		suggestions: suggestions,
		checkout:    checkout,
		receipts:    receipts,
		hub:         hub,
	}
}

type createSessionRequest struct {
	Currency  string `json:"currency"`
	HostName  string `json:"hostName"`
	HostEmail string `json:"hostEmail"`
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}

	session, err := h.sessions.CreateSession(r.Context(), req.Currency, req.HostName, req.HostEmail)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.sessions.ListSessions(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

type sessionResponse struct {
	Session *models.Session `json:"session"`
	Items   []models.Item   `json:"items"`
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.GetSession(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Session: view.Session, Items: view.Items})
}

func (h *Handlers) replaceItems(w http.ResponseWriter, r *http.Request) {
	var parsed models.ParsedReceipt
	if err := decodeJSON(r, &parsed); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	view, err := h.sessions.ReplaceReceipt(r.Context(), mux.Vars(r)["code"], parsed)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Session: view.Session, Items: view.Items})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) joinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}

	participant, err := h.sessions.Join(r.Context(), mux.Vars(r)["code"], req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, participant)
}

type participantResponse struct {
	models.Participant
	ItemsCents int64 `json:"items_cents"`
	TaxCents   int64 `json:"tax_cents"`
	TipCents   int64 `json:"tip_cents"`
	TotalCents int64 `json:"total_cents"`
}

func (h *Handlers) listParticipants(w http.ResponseWriter, r *http.Request) {
	views, err := h.sessions.Participants(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]participantResponse, 0, len(views))
	for _, v := range views {
		out = append(out, participantResponse{
			Participant: v.Participant,
			ItemsCents:  v.Share.ItemsCents,
			TaxCents:    v.Share.TaxCents,
			TipCents:    v.Share.TipCents,
			TotalCents:  v.Share.TotalCents,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"participants": out})
}

type setPaidRequest struct {
	Paid bool `json:"paid"`
}

func (h *Handlers) setParticipantPaid(w http.ResponseWriter, r *http.Request) {
	var req setPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	vars := mux.Vars(r)
	if err := h.claims.SetPaid(r.Context(), vars["code"], vars["participantID"], req.Paid); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"paid": req.Paid})
}

type hostRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handlers) getHost(w http.ResponseWriter, r *http.Request) {
	host, err := h.sessions.Host(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, host)
}

func (h *Handlers) setHost(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	host, err := h.sessions.SetHost(r.Context(), mux.Vars(r)["code"], req.Name, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, host)
}

type toggleClaimRequest struct {
	ItemID        string  `json:"itemId"`
	ParticipantID string  `json:"participantId"`
	Share         float64 `json:"share"`
}

func (h *Handlers) toggleClaim(w http.ResponseWriter, r *http.Request) {
	var req toggleClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result, err := h.claims.Toggle(r.Context(), mux.Vars(r)["code"], req.ItemID, req.ParticipantID, req.Share)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"added":  result.Added,
		"claims": result.Claims,
	})
}

func (h *Handlers) listClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claims.List(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"claims": claims})
}

func (h *Handlers) getSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.suggestions.Suggest(r.Context(), mux.Vars(r)["code"], q.Get("participantId"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"itemIds": result.ItemIDs,
		"source":  result.Source,
	})
}

type checkoutRequest struct {
	ParticipantID string `json:"participantId"`
}

func (h *Handlers) startCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	checkout, err := h.checkout.Start(r.Context(), mux.Vars(r)["code"], req.ParticipantID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, checkout)
}

// paymentSuccess is the browser-redirect callback from the hosted checkout.
// It responds with a redirect rather than JSON because the user agent is a
// person mid-payment, not an API client.
func (h *Handlers) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.checkout.HandleSuccess(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		respondError(w, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
