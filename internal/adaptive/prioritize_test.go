package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

func dueState(cardID int64, overdueDays int) *models.CardMemoryState {
	st := models.NewCardMemoryState(1, cardID)
	st.NextReviewDate = testNow.AddDate(0, 0, -overdueDays)
	st.TotalReviews = 5
	st.SuccessRate = 0.8
	return st
}

func TestPrioritizeFiltersNotDue(t *testing.T) {
	notDue := models.NewCardMemoryState(1, 1)
	notDue.NextReviewDate = testNow.AddDate(0, 0, 3)

	queue := Prioritize([]*models.CardMemoryState{notDue, dueState(2, 0), nil}, testNow)
	require.Len(t, queue, 1)
	assert.Equal(t, int64(2), queue[0].State.CardID)
}

func TestPrioritizeOrdersByUrgency(t *testing.T) {
	fresh := dueState(1, 0)
	overdue := dueState(2, 3)
	struggling := dueState(3, 0)
	struggling.SuccessRate = 0.3

	queue := Prioritize([]*models.CardMemoryState{fresh, overdue, struggling}, testNow)
	require.Len(t, queue, 3)
	assert.Equal(t, int64(2), queue[0].State.CardID, "3 days overdue scores 30")
	assert.Equal(t, int64(3), queue[1].State.CardID, "low success also scores 30, stable sort keeps input order")
}

func TestPrioritizeOverdueScoreIsCapped(t *testing.T) {
	ancient := dueState(1, 100)

	queue := Prioritize([]*models.CardMemoryState{ancient}, testNow)
	require.Len(t, queue, 1)
	assert.Equal(t, 50.0, queue[0].PriorityScore)
}

func TestPrioritizeUrgencySignalsAdd(t *testing.T) {
	st := dueState(1, 1)
	st.SuccessRate = 0.2
	st.ReasoningDepthHistory = models.FloatList{0.2, 0.3, 0.2}
	st.CognitiveLoadHistory = models.FloatList{0.9, 0.9, 0.9}
	st.QualityHistory = models.IntList{0, 5, 0, 5, 1}

	queue := Prioritize([]*models.CardMemoryState{st}, testNow)
	require.Len(t, queue, 1)
	// 10 overdue + 30 success + 25 reasoning + 20 load + 15 inconsistency
	assert.Equal(t, 100.0, queue[0].PriorityScore)
}

func TestPrioritizeReasonPrecedence(t *testing.T) {
	overdueAndWeak := dueState(1, 5)
	overdueAndWeak.SuccessRate = 0.1
	queue := Prioritize([]*models.CardMemoryState{overdueAndWeak}, testNow)
	require.Len(t, queue, 1)
	assert.Equal(t, "5 days overdue", queue[0].PriorityReason, "overdue beats low success")

	lowSuccess := dueState(2, 0)
	lowSuccess.SuccessRate = 0.1
	queue = Prioritize([]*models.CardMemoryState{lowSuccess}, testNow)
	assert.Equal(t, "Low success rate", queue[0].PriorityReason)

	weakReasoning := dueState(3, 0)
	weakReasoning.ReasoningDepthHistory = models.FloatList{0.2, 0.2}
	queue = Prioritize([]*models.CardMemoryState{weakReasoning}, testNow)
	assert.Equal(t, "Weak reasoning performance", queue[0].PriorityReason)

	plain := dueState(4, 0)
	queue = Prioritize([]*models.CardMemoryState{plain}, testNow)
	assert.Equal(t, "Regular review due", queue[0].PriorityReason)
}

func TestPrioritizeNoReasoningHistoryIsNotWeak(t *testing.T) {
	st := dueState(1, 0)
	st.ReasoningDepthHistory = nil

	queue := Prioritize([]*models.CardMemoryState{st}, testNow)
	require.Len(t, queue, 1)
	assert.Equal(t, "Regular review due", queue[0].PriorityReason)
	assert.Equal(t, 0.0, queue[0].PriorityScore)
}

func TestPrioritizeStableForEqualScores(t *testing.T) {
	a := dueState(1, 0)
	b := dueState(2, 0)
	c := dueState(3, 0)

	queue := Prioritize([]*models.CardMemoryState{a, b, c}, testNow)
	require.Len(t, queue, 3)
	assert.Equal(t, int64(1), queue[0].State.CardID)
	assert.Equal(t, int64(2), queue[1].State.CardID)
	assert.Equal(t, int64(3), queue[2].State.CardID)
}

func TestPrioritizeDeterministic(t *testing.T) {
	states := []*models.CardMemoryState{dueState(1, 2), dueState(2, 0), dueState(3, 4)}

	first := Prioritize(states, testNow)
	second := Prioritize(states, testNow)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].State.CardID, second[i].State.CardID)
		assert.Equal(t, first[i].PriorityScore, second[i].PriorityScore)
	}
}
