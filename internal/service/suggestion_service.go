package service

import (
	"context"
	"strings"

	"github.com/splitsmart/splitsmart/internal/cache"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
	"github.com/splitsmart/splitsmart/internal/suggest"
)

// SuggestionService answers "which items on this receipt are probably mine"
// by combining the cross-session suggestion engine with the names the
// participant claimed most recently in this session.
type SuggestionService struct {
	store  storage.Store
	engine *suggest.Engine
	cache  cache.Cache
}

func NewSuggestionService(store storage.Store, engine *suggest.Engine, c cache.Cache) *SuggestionService {
	return &SuggestionService{store: store, engine: engine, cache: c}
}

// Suggestions holds suggested item ids in rank order plus the source that
// produced the ranking.
type Suggestions struct {
	ItemIDs []string
	Source  string
}

// Suggest returns up to suggest.MaxSuggestions unclaimed item ids for the
// participant, engine ranking first, then locally cached recent claims.
func (s *SuggestionService) Suggest(ctx context.Context, code, participantID string, historyLimit int) (*Suggestions, error) {
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
	items, err := s.store.ListItems(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	claims, err := s.store.ListClaims(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	result, err := s.engine.Suggest(ctx, suggest.Input{
		Participant:  participant,
		Items:        items,
		Claims:       claims,
		HistoryLimit: historyLimit,
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	claimed := make(map[string]bool)
	for _, c := range claims {
		if c.ParticipantID == participantID {
			claimed[c.ItemID] = true
		}
	}

	ids := make([]string, 0, suggest.MaxSuggestions)
	seen := make(map[string]bool)
	for _, id := range result.ItemIDs {
		if claimed[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	source := result.Source
	for _, id := range s.localCandidates(session.ID, participant, items) {
		if len(ids) >= suggest.MaxSuggestions {
			break
		}
		if claimed[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if source == "" {
			source = "local"
		}
	}
	if len(ids) > suggest.MaxSuggestions {
		ids = ids[:suggest.MaxSuggestions]
	}

	return &Suggestions{ItemIDs: ids, Source: source}, nil
}

// localCandidates maps the participant's cached recently-claimed names onto
// item ids on the current receipt.
func (s *SuggestionService) localCandidates(sessionID string, p *models.Participant, items []models.Item) []string {
	names, ok := s.cache.Get(claimedNamesKey(sessionID, p.ID))
	if !ok || len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	var ids []string
	for _, it := range items {
		if wanted[strings.ToLower(strings.TrimSpace(it.Name))] {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
