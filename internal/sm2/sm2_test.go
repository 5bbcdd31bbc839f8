package sm2

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFirstReviewUsesDefaults(t *testing.T) {
	sm := NewSM2()

	result, err := sm.ComputeBase(nil, models.ReviewResponse{Quality: 4}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.IntervalDays)
	assert.Equal(t, 1, result.Repetitions)
	assert.InDelta(t, 2.5, result.EaseFactor, 1e-9, "quality 4 leaves the ease factor unchanged")
	assert.Equal(t, testNow.AddDate(0, 0, 1), result.NextReviewDate)
}

func TestIntervalLadder(t *testing.T) {
	sm := NewSM2()

	// Three perfect recalls in a row walk the 1 / 6 / round(6*EF) ladder,
	// where the third step uses the ease factor from before its own update.
	r1, err := sm.ComputeBase(nil, models.ReviewResponse{Quality: 5}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, r1.IntervalDays)
	assert.InDelta(t, 2.6, r1.EaseFactor, 1e-9)

	st := stateFrom(r1)
	r2, err := sm.ComputeBase(st, models.ReviewResponse{Quality: 5}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 6, r2.IntervalDays)
	assert.InDelta(t, 2.7, r2.EaseFactor, 1e-9)

	st = stateFrom(r2)
	r3, err := sm.ComputeBase(st, models.ReviewResponse{Quality: 5}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 16, r3.IntervalDays, "round(6 * 2.7)")
	assert.Equal(t, 3, r3.Repetitions)
}

func TestFailedRecallResetsProgress(t *testing.T) {
	sm := NewSM2()

	st := models.NewCardMemoryState(1, 1)
	st.EaseFactor = 2.7
	st.IntervalDays = 42
	st.Repetitions = 5

	for quality := 0; quality <= 2; quality++ {
		result, err := sm.ComputeBase(st, models.ReviewResponse{Quality: quality}, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, result.IntervalDays, "quality %d must reset the interval", quality)
		assert.Equal(t, 0, result.Repetitions, "quality %d must reset repetitions", quality)
	}
}

func TestFailureStillLowersEaseFactor(t *testing.T) {
	sm := NewSM2()

	st := models.NewCardMemoryState(1, 1)
	st.EaseFactor = 2.5
	st.IntervalDays = 10
	st.Repetitions = 3

	result, err := sm.ComputeBase(st, models.ReviewResponse{Quality: 0}, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.7, result.EaseFactor, 1e-9, "2.5 + (0.1 - 5*(0.08 + 5*0.02))")
}

func TestEaseFactorFloor(t *testing.T) {
	assert.InDelta(t, 1.3, NextEaseFactor(1.3, 0), 1e-9)
	assert.InDelta(t, 1.3, NextEaseFactor(1.35, 1), 1e-9)
	// Repeated failures can never push below the floor
	ef := 2.5
	for i := 0; i < 10; i++ {
		ef = NextEaseFactor(ef, 0)
	}
	assert.InDelta(t, 1.3, ef, 1e-9)
}

func TestEaseFactorUpdateByGrade(t *testing.T) {
	assert.InDelta(t, 2.6, NextEaseFactor(2.5, 5), 1e-9)
	assert.InDelta(t, 2.5, NextEaseFactor(2.5, 4), 1e-9)
	assert.InDelta(t, 2.36, NextEaseFactor(2.5, 3), 1e-9)
}

func TestIntervalNeverExceedsMax(t *testing.T) {
	sm := NewSM2()

	st := models.NewCardMemoryState(1, 1)
	st.EaseFactor = 2.5
	st.IntervalDays = 300
	st.Repetitions = 8

	result, err := sm.ComputeBase(st, models.ReviewResponse{Quality: 5}, testNow)
	require.NoError(t, err)
	assert.Equal(t, sm.MaxInterval, result.IntervalDays)
}

func TestInvalidInputRejected(t *testing.T) {
	sm := NewSM2()

	_, err := sm.ComputeBase(nil, models.ReviewResponse{Quality: 6}, testNow)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = sm.ComputeBase(nil, models.ReviewResponse{Quality: -1}, testNow)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = sm.ComputeBase(nil, models.ReviewResponse{Quality: 3, ResponseTimeMs: -5}, testNow)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestComputeBaseDoesNotMutatePrior(t *testing.T) {
	sm := NewSM2()

	st := models.NewCardMemoryState(1, 1)
	st.EaseFactor = 2.1
	st.IntervalDays = 7
	st.Repetitions = 2

	_, err := sm.ComputeBase(st, models.ReviewResponse{Quality: 5}, testNow)
	require.NoError(t, err)

	assert.InDelta(t, 2.1, st.EaseFactor, 1e-9)
	assert.Equal(t, 7, st.IntervalDays)
	assert.Equal(t, 2, st.Repetitions)
}

func TestFeedbackBands(t *testing.T) {
	sm := NewSM2()

	cases := map[int]string{
		5: "excellent",
		4: "good",
		3: "fair",
		2: "poor",
		1: "poor",
		0: "poor",
	}
	for quality, level := range cases {
		result, err := sm.ComputeBase(nil, models.ReviewResponse{Quality: quality}, testNow)
		require.NoError(t, err)
		assert.Equal(t, level, result.Feedback.Level, "quality %d", quality)
		assert.NotEmpty(t, result.Feedback.Message)
	}
}

func TestClassify(t *testing.T) {
	sm := NewSM2()
	assert.Equal(t, OutcomeFail, sm.Classify(2))
	assert.Equal(t, OutcomeSuccess, sm.Classify(3))
}

func stateFrom(r *Result) *models.CardMemoryState {
	st := models.NewCardMemoryState(1, 1)
	st.EaseFactor = r.EaseFactor
	st.IntervalDays = r.IntervalDays
	st.Repetitions = r.Repetitions
	return st
}
