package adaptive

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/srsengine/pkg/models"
)

// PrioritizedCard is a due card annotated with its urgency score and a
// human-readable reason for the ordering.
type PrioritizedCard struct {
	State          *models.CardMemoryState
	PriorityScore  float64
	PriorityReason string
}

// Prioritize filters states down to the cards due at now and orders them
// most-urgent first. The sort is stable, so equal scores keep the input
// order and repeated calls over the same snapshot produce the same queue.
func Prioritize(states []*models.CardMemoryState, now time.Time) []PrioritizedCard {
	due := make([]PrioritizedCard, 0, len(states))
	for _, st := range states {
		if st == nil || !st.IsDue(now) {
			continue
		}
		score, reason := priorityOf(st, now)
		due = append(due, PrioritizedCard{
			State:          st,
			PriorityScore:  score,
			PriorityReason: reason,
		})
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].PriorityScore > due[j].PriorityScore
	})
	return due
}

// priorityOf scores one due card. Overdue days dominate but are capped so a
// long-abandoned card cannot starve everything else forever.
func priorityOf(st *models.CardMemoryState, now time.Time) (float64, string) {
	overdueDays := st.OverdueDays(now)

	score := float64(overdueDays) * 10
	if score > 50 {
		score = 50
	}

	lowSuccess := st.TotalReviews > 0 && st.SuccessRate < 0.5
	if lowSuccess {
		score += 30
	}

	weakReasoning := len(st.ReasoningDepthHistory) > 0 && meanTail(st.ReasoningDepthHistory, 3) < 0.5
	if weakReasoning {
		score += 25
	}

	if len(st.CognitiveLoadHistory) > 0 && meanTail(st.CognitiveLoadHistory, 3) > 0.8 {
		score += 20
	}

	if len(st.QualityHistory) >= 2 && consistency(intsToFloats(st.QualityHistory)) < 0.5 {
		score += 15
	}

	switch {
	case overdueDays > 2:
		return score, fmt.Sprintf("%d days overdue", overdueDays)
	case lowSuccess:
		return score, "Low success rate"
	case weakReasoning:
		return score, "Weak reasoning performance"
	default:
		return score, "Regular review due"
	}
}
