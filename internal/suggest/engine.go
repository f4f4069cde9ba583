// Package suggest ranks the current session's unclaimed items against a
// participant's cross-session claim history and produces "claim your usual
// order" suggestions. The pipeline is strictly ordered: name-keyed history
// scoring, then a model-assisted ranking when a credential is configured,
// then a deterministic heuristic that also serves as the fallback for any
// model failure. No suggestions is a normal empty result, never an error.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/splitsmart/splitsmart/internal/genai"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

const (
	// MaxSuggestions caps every suggestion list.
	MaxSuggestions = 10

	// maxFavorites caps how many scored names are sent to the model.
	maxFavorites = 50

	// History limit bounds, clamped onto the caller-supplied value.
	minHistoryLimit = 25
	maxHistoryLimit = 200

	// defaultModelTimeout bounds the model-assisted path so it can never
	// block the heuristic fallback indefinitely.
	defaultModelTimeout = 10 * time.Second
)

// Recommender is the model-assisted ranking dependency. A nil Recommender
// means the heuristic path runs unconditionally.
type Recommender interface {
	RecommendItems(ctx context.Context, currentItems []string, claimedItemIDs []string, favorites []genai.Favorite) ([]string, error)
	Configured() bool
}

// Engine computes suggestions from store history and current session state.
type Engine struct {
	store        storage.Store
	rec          Recommender
	modelTimeout time.Duration
	now          func() time.Time
}

// New creates an Engine. rec may be nil.
func New(store storage.Store, rec Recommender) *Engine {
	return &Engine{
		store:        store,
		rec:          rec,
		modelTimeout: defaultModelTimeout,
		now:          time.Now,
	}
}

// Input is everything Suggest needs about the current session.
type Input struct {
	// Participant is the diner asking for suggestions.
	Participant *models.Participant

	// Items and Claims are the current session's state.
	Items  []models.Item
	Claims []models.Claim

	// HistoryLimit bounds how much cross-session history is read,
	// clamped to [25, 200]. Zero means the default of 100.
	HistoryLimit int
}

// Result carries the ranked item ids plus which ranker produced them:
// "model", "heuristic", or "" when there was nothing to rank.
type Result struct {
	ItemIDs []string
	Source  string
}

// Suggest returns item ids ordered by descending confidence, capped at 10.
// A participant with a blank name gets an empty list: without a name there
// is no safe way to aggregate anonymous history. The only error returned is
// a store failure; model failures fall through to the heuristic silently.
func (e *Engine) Suggest(ctx context.Context, in Input) (Result, error) {
	name := strings.TrimSpace(in.Participant.Name)
	if name == "" {
		return Result{ItemIDs: []string{}}, nil
	}

	pids, err := e.store.FindParticipantIDsByName(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if len(pids) == 0 {
		return Result{ItemIDs: []string{}}, nil
	}

	history, err := e.store.ClaimHistory(ctx, pids, clampHistoryLimit(in.HistoryLimit))
	if err != nil {
		return Result{}, err
	}

	scores := ScoreHistory(history, e.now())
	claimedByYou := claimedItemIDs(in.Claims, in.Participant.ID)

	if e.rec != nil && e.rec.Configured() {
		if ids, ok := e.modelSuggest(ctx, in.Items, claimedByYou, scores); ok {
			return Result{ItemIDs: ids, Source: "model"}, nil
		}
	}

	ids := heuristicSuggest(in.Items, claimedByYou, scores)
	source := "heuristic"
	if len(ids) == 0 {
		source = ""
	}
	return Result{ItemIDs: ids, Source: source}, nil
}

// ScoreHistory builds the recency-weighted score per lowercased item name.
// Each historical claim contributes weight = max(1, 2 - ageDays/30): claims
// newer than ~30 days count up to double, and a claim from a year ago still
// counts once.
func ScoreHistory(history []models.ClaimHistoryEntry, now time.Time) map[string]float64 {
	scores := make(map[string]float64, len(history))
	for _, h := range history {
		name := strings.ToLower(strings.TrimSpace(h.ItemName))
		if name == "" {
			continue
		}
		ageDays := now.Sub(time.Unix(h.CreatedAt, 0)).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weight := 2 - ageDays/30
		if weight < 1 {
			weight = 1
		}
		scores[name] += weight
	}
	return scores
}

// modelSuggest runs the model-assisted path under a bounded timeout. The
// second return is false whenever the path failed and the heuristic should
// take over; any failure mode is treated identically.
func (e *Engine) modelSuggest(ctx context.Context, items []models.Item, claimedByYou map[string]bool, scores map[string]float64) ([]string, bool) {
	mctx, cancel := context.WithTimeout(ctx, e.modelTimeout)
	defer cancel()

	favorites := topFavorites(scores, maxFavorites)
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	claimed := make([]string, 0, len(claimedByYou))
	for id := range claimedByYou {
		claimed = append(claimed, id)
	}
	sort.Strings(claimed)

	recommended, err := e.rec.RecommendItems(mctx, names, claimed, favorites)
	if err != nil {
		slog.Warn("model suggestion failed, using heuristic", "error", err)
		return nil, false
	}

	lowerToID := make(map[string]string, len(items))
	for _, it := range items {
		lowerToID[strings.ToLower(it.Name)] = it.ID
	}

	ids := make([]string, 0, MaxSuggestions)
	for _, n := range recommended {
		id, ok := lowerToID[strings.ToLower(n)]
		if !ok || claimedByYou[id] {
			continue
		}
		ids = append(ids, id)
		if len(ids) >= MaxSuggestions {
			break
		}
	}
	return ids, true
}

// heuristicSuggest is the deterministic fallback: score each unclaimed
// current item by its lowercased name, keep positive scores, sort
// descending, cap at 10. Ties keep the items' receipt order.
func heuristicSuggest(items []models.Item, claimedByYou map[string]bool, scores map[string]float64) []string {
	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(items))
	for _, it := range items {
		if claimedByYou[it.ID] {
			continue
		}
		if s := scores[strings.ToLower(it.Name)]; s > 0 {
			candidates = append(candidates, scored{id: it.ID, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ids := make([]string, 0, MaxSuggestions)
	for _, c := range candidates {
		ids = append(ids, c.id)
		if len(ids) >= MaxSuggestions {
			break
		}
	}
	return ids
}

// topFavorites returns the n highest-scored names, descending.
func topFavorites(scores map[string]float64, n int) []genai.Favorite {
	favorites := make([]genai.Favorite, 0, len(scores))
	for name, score := range scores {
		favorites = append(favorites, genai.Favorite{Name: name, Score: score})
	}
	sort.Slice(favorites, func(i, j int) bool {
		if favorites[i].Score != favorites[j].Score {
			return favorites[i].Score > favorites[j].Score
		}
		return favorites[i].Name < favorites[j].Name
	})
	if len(favorites) > n {
		favorites = favorites[:n]
	}
	return favorites
}

// claimedItemIDs collects the item ids this participant already claims.
func claimedItemIDs(claims []models.Claim, participantID string) map[string]bool {
	out := make(map[string]bool)
	for _, c := range claims {
		if c.ParticipantID == participantID {
			out[c.ItemID] = true
		}
	}
	return out
}

func clampHistoryLimit(limit int) int {
	if limit == 0 {
		limit = 100
	}
	if limit < minHistoryLimit {
		return minHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
