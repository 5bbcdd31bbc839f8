package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

func seedState(t *testing.T, repo *CardStateRepository, userID, cardID int64) *models.CardMemoryState {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	state := models.NewCardMemoryState(userID, cardID)
	state.LastReviewDate = now
	state.NextReviewDate = now.AddDate(0, 0, 1)
	state.QualityHistory = models.IntList{4}
	state.ReasoningDepthHistory = models.FloatList{0.7}
	state.PatternRecognitionHistory = models.FloatList{0.6}
	state.CognitiveLoadHistory = models.FloatList{0.4}
	state.TotalReviews = 1
	state.SuccessRate = 1.0
	require.NoError(t, repo.Create(state))
	return state
}

func TestCardStateGetMissingReturnsNil(t *testing.T) {
	setupTestDB(t)
	repo := NewCardStateRepository()

	state, err := repo.Get(1, 99)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestCardStateCreateAndGet(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	card := createTestCard(t, "math", "2+2?")
	repo := NewCardStateRepository()

	state := seedState(t, repo, user.ID, card.ID)
	assert.NotZero(t, state.ID)
	assert.Equal(t, int64(1), state.Version)

	got, err := repo.Get(user.ID, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state.ID, got.ID)
	assert.Equal(t, models.IntList{4}, got.QualityHistory)
	assert.Equal(t, models.FloatList{0.7}, got.ReasoningDepthHistory)
	assert.Equal(t, models.FloatList{0.6}, got.PatternRecognitionHistory)
	assert.Equal(t, models.FloatList{0.4}, got.CognitiveLoadHistory)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.Equal(t, 1.0, got.PersonalizedIntervalMultiplier)
	assert.Equal(t, models.TrendStable, got.DifficultyTrend)
}

func TestCardStateUpdateCASBumpsVersion(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 101)
	card := createTestCard(t, "math", "3+3?")
	repo := NewCardStateRepository()

	state := seedState(t, repo, user.ID, card.ID)

	state.IntervalDays = 6
	state.Repetitions = 2
	state.QualityHistory = models.AppendBounded(state.QualityHistory, 5, models.HistoryCap)
	require.NoError(t, repo.UpdateCAS(state))
	assert.Equal(t, int64(2), state.Version)

	got, err := repo.Get(user.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.IntervalDays)
	assert.Equal(t, models.IntList{4, 5}, got.QualityHistory)
	assert.Equal(t, int64(2), got.Version)
}

func TestCardStateUpdateCASDetectsConflict(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 102)
	card := createTestCard(t, "math", "4+4?")
	repo := NewCardStateRepository()

	seedState(t, repo, user.ID, card.ID)

	// two readers pick up the same version
	first, err := repo.Get(user.ID, card.ID)
	require.NoError(t, err)
	second, err := repo.Get(user.ID, card.ID)
	require.NoError(t, err)

	first.IntervalDays = 6
	require.NoError(t, repo.UpdateCAS(first))

	second.IntervalDays = 12
	err = repo.UpdateCAS(second)
	assert.True(t, errors.Is(err, ErrStorageConflict))

	got, err := repo.Get(user.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.IntervalDays, "the losing write must not land")
}

func TestCardStateDueForUser(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 103)
	other := createTestUser(t, 104)
	repo := NewCardStateRepository()
	now := time.Now().UTC()

	dueCard := createTestCard(t, "math", "5+5?")
	due := seedState(t, repo, user.ID, dueCard.ID)
	due.NextReviewDate = now.AddDate(0, 0, -1)
	require.NoError(t, repo.UpdateCAS(due))

	futureCard := createTestCard(t, "math", "6+6?")
	future := seedState(t, repo, user.ID, futureCard.ID)
	future.NextReviewDate = now.AddDate(0, 0, 5)
	require.NoError(t, repo.UpdateCAS(future))

	otherCard := createTestCard(t, "math", "7+7?")
	theirs := seedState(t, repo, other.ID, otherCard.ID)
	theirs.NextReviewDate = now.AddDate(0, 0, -1)
	require.NoError(t, repo.UpdateCAS(theirs))

	states, err := repo.DueForUser(user.ID, now)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, dueCard.ID, states[0].CardID)

	all, err := repo.ForUser(user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCardStateUserStatistics(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 105)
	repo := NewCardStateRepository()

	empty, err := repo.GetUserStatistics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalCards)
	assert.Equal(t, 0.0, empty.AverageSuccess)

	for i, q := range []string{"8+8?", "9+9?"} {
		card := createTestCard(t, "math", q)
		st := seedState(t, repo, user.ID, card.ID)
		st.TotalReviews = 2 + i
		st.SuccessRate = 0.5
		require.NoError(t, repo.UpdateCAS(st))
	}

	stats, err := repo.GetUserStatistics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCards)
	assert.Equal(t, 5, stats.TotalReviews)
	assert.InDelta(t, 0.5, stats.AverageSuccess, 1e-9)
	assert.InDelta(t, 2.5, stats.AverageEase, 1e-9)
	assert.InDelta(t, 1.0, stats.AverageInterval, 1e-9)
}
