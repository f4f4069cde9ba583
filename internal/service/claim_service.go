package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/splitsmart/splitsmart/internal/cache"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// ClaimService toggles item claims and keeps the per-participant
// recently-claimed cache current for the suggestion engine.
type ClaimService struct {
	store storage.Store
	hub   *realtime.Hub
	cache cache.Cache
}

func NewClaimService(store storage.Store, hub *realtime.Hub, c cache.Cache) *ClaimService {
	return &ClaimService{store: store, hub: hub, cache: c}
}

// ToggleResult reports which way a toggle went.
type ToggleResult struct {
	Added  bool
	Claims []models.Claim
}

// Toggle claims the item for the participant, or removes the claim if it
// already exists. Both directions are safe to retry: a duplicate add and a
// double remove land in the same final state.
func (s *ClaimService) Toggle(ctx context.Context, code, itemID, participantID string, share float64) (*ToggleResult, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, validationf("itemId is required")
	}
	if strings.TrimSpace(participantID) == "" {
		return nil, validationf("participantId is required")
	}
	if share == 0 {
		share = 1
	}
	if share < 0 {
		return nil, validationf("share must be positive")
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

	added, err := s.store.ToggleClaim(ctx, session.ID, itemID, participantID, share)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	claims, err := s.store.ListClaims(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.rememberClaimedNames(ctx, session.ID, participantID, claims)
	s.hub.Publish(session.ID, realtime.TableClaims)

	return &ToggleResult{Added: added, Claims: claims}, nil
}

// List returns every claim in the session.
func (s *ClaimService) List(ctx context.Context, code string) ([]models.Claim, error) {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	claims, err := s.store.ListClaims(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return claims, nil
}

// SetPaid marks a participant's paid flag directly, for hosts settling up
// outside the checkout flow.
func (s *ClaimService) SetPaid(ctx context.Context, code, participantID string, paid bool) error {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return wrapStoreErr(err)
	}
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if participant.SessionID != session.ID {
		return fmt.Errorf("%w: participant %s is not in session %s", ErrNotFound, participantID, code)
	}
	if err := s.store.SetParticipantPaid(ctx, participantID, paid); err != nil {
		return wrapStoreErr(err)
	}
	s.hub.Publish(session.ID, realtime.TableParticipants)
	return nil
}

// rememberClaimedNames stores the participant's currently claimed item names
// so the suggestion engine can surface them next time. Cache writes are best
// effort; a miss only costs suggestion quality.
func (s *ClaimService) rememberClaimedNames(ctx context.Context, sessionID, participantID string, claims []models.Claim) {
	items, err := s.store.ListItems(ctx, sessionID)
	if err != nil {
		slog.Warn("skipping claimed-name cache update", "error", err)
		return
	}
	byID := make(map[string]string, len(items))
	for _, it := range items {
		byID[it.ID] = it.Name
	}

	var names []string
	seen := make(map[string]bool)
	for _, c := range claims {
		if c.ParticipantID != participantID {
			continue
		}
		name := byID[c.ItemID]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	s.cache.Set(claimedNamesKey(sessionID, participantID), names)
}

func claimedNamesKey(sessionID, participantID string) string {
	return "claimed:" + sessionID + ":" + participantID
}
