package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/splitsmart/internal/allocator"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/payments"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// CheckoutService turns a participant's computed share into a payment: a
// hosted checkout redirect when the provider is configured, an immediate
// simulated success otherwise.
type CheckoutService struct {
	store    storage.Store
	provider payments.Provider
	state    *payments.StateManager
	hub      *realtime.Hub
	baseURL  string
	priceID  string
}

func NewCheckoutService(store storage.Store, provider payments.Provider, state *payments.StateManager, hub *realtime.Hub, baseURL, priceID string) *CheckoutService {
	return &CheckoutService{
		store:    store,
		provider: provider,
		state:    state,
		hub:      hub,
		baseURL:  strings.TrimRight(baseURL, "/"),
		priceID:  priceID,
	}
}

// Checkout is the result of starting a payment.
type Checkout struct {
	// URL is where the diner's browser goes next: the provider's hosted
	// page, or straight back to the session in demo mode.
	URL string `json:"url"`

	// Demo is true when no real charge happened.
	Demo bool `json:"demo"`

	// AmountCents is the share the payment covers.
	AmountCents int64 `json:"amount_cents"`
}

// Start computes the participant's share, records a pending payment, and
// hands off to the provider. With the provider unconfigured the payment
// completes immediately so the demo flow stays end-to-end usable.
func (s *CheckoutService) Start(ctx context.Context, code, participantID string) (*Checkout, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, validationf("participantId is required")
	}

	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if participant.SessionID != session.ID {
		return nil, fmt.Errorf("%w: participant %s is not in session %s", ErrNotFound, participantID, code)
	}

	items, err := s.store.ListItems(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	claims, err := s.store.ListClaims(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	share := allocator.ComputeShare(participantID, items, claims, session.Totals)
	if share.TotalCents <= 0 {
		return nil, validationf("participant has no claimed amount to pay")
	}

	payment := &models.Payment{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		ParticipantID: participantID,
		HostID:        session.HostID,
		AmountCents:   share.TotalCents,
		Status:        models.PaymentPending,
		CreatedAt:     time.Now().Unix(),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.provider.DemoMode() {
		if err := s.complete(ctx, payment); err != nil {
			return nil, err
		}
		return &Checkout{
			URL:         s.sessionURL(session.Code, "paid=1&demo=1"),
			Demo:        true,
			AmountCents: share.TotalCents,
		}, nil
	}

	if err := s.provider.FindOrCreateCustomer(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	state, err := s.state.Sign(session.Code, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("signing payment state: %w", err)
	}

	checkout, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		PriceID:    s.priceID,
		Quantity:   1,
		SuccessURL: s.baseURL + "/api/pay/success?state=" + url.QueryEscape(state),
		CancelURL:  s.sessionURL(session.Code, "cancelled=1"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Checkout{URL: checkout.URL, AmountCents: share.TotalCents}, nil
}

// HandleSuccess processes the provider's success callback. The state token
// proves the callback refers to a payment this server created. Replays are
// harmless: the status transition and the host credit are both idempotent.
// Returns the session URL the browser should be redirected to.
func (s *CheckoutService) HandleSuccess(ctx context.Context, stateToken string) (string, error) {
	claims, err := s.state.Validate(stateToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	payment, err := s.store.GetPayment(ctx, claims.PaymentID)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	if err := s.complete(ctx, payment); err != nil {
		return "", err
	}
	return s.sessionURL(claims.SessionCode, "paid=1"), nil
}

// complete transitions the payment to paid exactly once, marks the payer
// settled, and credits the host ledger. The participant flag is best effort;
// the ledger credit is not, since money depends on it.
func (s *CheckoutService) complete(ctx context.Context, payment *models.Payment) error {
	updated, err := s.store.MarkPaymentPaid(ctx, payment.ID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if !updated {
		return nil
	}

	if err := s.store.SetParticipantPaid(ctx, payment.ParticipantID, true); err != nil {
		slog.Warn("payment recorded but participant flag not updated",
			"payment_id", payment.ID,
			"participant_id", payment.ParticipantID,
			"error", err)
	}

	if payment.HostID != "" && payment.AmountCents > 0 {
		created, err := s.store.CreditHostOnce(ctx, &models.HostLedgerEntry{
			ID:          uuid.NewString(),
			HostID:      payment.HostID,
			PaymentID:   payment.ID,
			Type:        models.LedgerEntryHostCredit,
			AmountCents: payment.AmountCents,
			CreatedAt:   time.Now().Unix(),
		})
		if err != nil {
			return wrapStoreErr(err)
		}
		if created {
			slog.Info("host credited",
				"host_id", payment.HostID,
				"payment_id", payment.ID,
				"amount_cents", payment.AmountCents)
		}
	}

	s.hub.Publish(payment.SessionID, realtime.TableParticipants)
	return nil
}

func (s *CheckoutService) sessionURL(code, query string) string {
	u := s.baseURL + "/s/" + url.PathEscape(code)
	if query != "" {
		u += "?" + query
	}
	return u
}
