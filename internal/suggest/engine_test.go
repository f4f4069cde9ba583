package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/splitsmart/internal/genai"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// fakeStore stubs just the two lookups the engine performs. Any other Store
// method panics via the embedded nil interface, which is what we want in a
// test.
type fakeStore struct {
	storage.Store
	pids    []string
	history []models.ClaimHistoryEntry
}

func (f *fakeStore) FindParticipantIDsByName(_ context.Context, _ string) ([]string, error) {
	return f.pids, nil
}

func (f *fakeStore) ClaimHistory(_ context.Context, _ []string, _ int) ([]models.ClaimHistoryEntry, error) {
	return f.history, nil
}

type fakeRecommender struct {
	names      []string
	err        error
	configured bool
	called     bool
}

func (f *fakeRecommender) RecommendItems(_ context.Context, _ []string, _ []string, _ []genai.Favorite) ([]string, error) {
	f.called = true
	return f.names, f.err
}

func (f *fakeRecommender) Configured() bool { return f.configured }

func historyAt(name string, age time.Duration, now time.Time) models.ClaimHistoryEntry {
	return models.ClaimHistoryEntry{ItemName: name, CreatedAt: now.Add(-age).Unix()}
}

func TestScoreHistory(t *testing.T) {
	now := time.Now()

	t.Run("fresh claims weigh double", func(t *testing.T) {
		scores := ScoreHistory([]models.ClaimHistoryEntry{historyAt("Burger", 0, now)}, now)
		assert.InDelta(t, 2.0, scores["burger"], 0.01)
	})

	t.Run("weight decays to a floor of one", func(t *testing.T) {
		scores := ScoreHistory([]models.ClaimHistoryEntry{
			historyAt("Burger", 15*24*time.Hour, now),
			historyAt("Soda", 400*24*time.Hour, now),
		}, now)
		assert.InDelta(t, 1.5, scores["burger"], 0.01)
		assert.InDelta(t, 1.0, scores["soda"], 0.01)
	})

	t.Run("repeated claims accumulate under a lowercased name", func(t *testing.T) {
		scores := ScoreHistory([]models.ClaimHistoryEntry{
			historyAt("Fries", 400*24*time.Hour, now),
			historyAt("FRIES", 400*24*time.Hour, now),
		}, now)
		assert.InDelta(t, 2.0, scores["fries"], 0.01)
		assert.Len(t, scores, 1)
	})

	t.Run("blank names are skipped", func(t *testing.T) {
		scores := ScoreHistory([]models.ClaimHistoryEntry{{ItemName: "  "}}, now)
		assert.Empty(t, scores)
	})
}

func TestSuggestHeuristic(t *testing.T) {
	now := time.Now()
	items := []models.Item{
		{ID: "i1", Name: "Burger"},
		{ID: "i2", Name: "Fries"},
		{ID: "i3", Name: "Soda"},
		{ID: "i4", Name: "Salad"},
	}
	store := &fakeStore{
		pids: []string{"p-old"},
		history: []models.ClaimHistoryEntry{
			historyAt("Fries", 0, now),
			historyAt("Fries", 0, now),
			historyAt("Burger", 0, now),
		},
	}

	engine := New(store, nil)

	t.Run("ranks by score and omits unseen items", func(t *testing.T) {
		result, err := engine.Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"i2", "i1"}, result.ItemIDs)
		assert.Equal(t, "heuristic", result.Source)
	})

	t.Run("already-claimed items are excluded", func(t *testing.T) {
		result, err := engine.Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
			Claims:      []models.Claim{{ItemID: "i2", ParticipantID: "p1", Share: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"i1"}, result.ItemIDs)
	})

	t.Run("blank participant name yields nothing", func(t *testing.T) {
		result, err := engine.Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "   "},
			Items:       items,
		})
		require.NoError(t, err)
		assert.Empty(t, result.ItemIDs)
		assert.Empty(t, result.Source)
	})

	t.Run("no matching history yields nothing", func(t *testing.T) {
		empty := &fakeStore{pids: []string{"p-old"}}
		result, err := New(empty, nil).Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
		})
		require.NoError(t, err)
		assert.Empty(t, result.ItemIDs)
	})
}

func TestSuggestModelPath(t *testing.T) {
	now := time.Now()
	items := []models.Item{
		{ID: "i1", Name: "Burger"},
		{ID: "i2", Name: "Fries"},
	}
	store := &fakeStore{
		pids:    []string{"p-old"},
		history: []models.ClaimHistoryEntry{historyAt("Burger", 0, now)},
	}

	t.Run("model ranking wins when the recommender succeeds", func(t *testing.T) {
		rec := &fakeRecommender{configured: true, names: []string{"fries", "burger", "unknown"}}
		result, err := New(store, rec).Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
		})
		require.NoError(t, err)
		assert.True(t, rec.called)
		assert.Equal(t, []string{"i2", "i1"}, result.ItemIDs, "model order, names mapped case-insensitively, unknown names dropped")
		assert.Equal(t, "model", result.Source)
	})

	t.Run("recommender failure falls back to the heuristic", func(t *testing.T) {
		rec := &fakeRecommender{configured: true, err: errors.New("model unavailable")}
		result, err := New(store, rec).Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"i1"}, result.ItemIDs)
		assert.Equal(t, "heuristic", result.Source)
	})

	t.Run("unconfigured recommender is never called", func(t *testing.T) {
		rec := &fakeRecommender{configured: false, names: []string{"fries"}}
		result, err := New(store, rec).Suggest(context.Background(), Input{
			Participant: &models.Participant{ID: "p1", Name: "Alice"},
			Items:       items,
		})
		require.NoError(t, err)
		assert.False(t, rec.called)
		assert.Equal(t, "heuristic", result.Source)
	})
}

func TestClampHistoryLimit(t *testing.T) {
	assert.Equal(t, 100, clampHistoryLimit(0))
	assert.Equal(t, minHistoryLimit, clampHistoryLimit(1))
	assert.Equal(t, maxHistoryLimit, clampHistoryLimit(5000))
	assert.Equal(t, 60, clampHistoryLimit(60))
}

func TestTopFavorites(t *testing.T) {
	scores := map[string]float64{"burger": 3, "fries": 5, "soda": 5, "salad": 1}

	favorites := topFavorites(scores, 3)

	require.Len(t, favorites, 3)
	assert.Equal(t, "fries", favorites[0].Name, "score ties break alphabetically")
	assert.Equal(t, "soda", favorites[1].Name)
	assert.Equal(t, "burger", favorites[2].Name)
}
