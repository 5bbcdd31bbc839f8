package adaptive

import (
	"math"
	"sort"
	"time"

	"github.com/example/srsengine/pkg/models"
)

// StudyAnalytics summarizes one card's learning trajectory for dashboards
// and the bot's /stats command.
type StudyAnalytics struct {
	CardID           int64   `json:"card_id"`
	RetentionRate    float64 `json:"retention_rate"`
	MasteryLevel     float64 `json:"mastery_level"`
	MemoryStrength   float64 `json:"memory_strength"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	DifficultyTrend  string  `json:"difficulty_trend"`
	TotalReviews     int     `json:"total_reviews"`
	NextReviewInDays int     `json:"next_review_in_days"`
}

// AnalyzeCard computes the per-card analytics snapshot at now.
func AnalyzeCard(st *models.CardMemoryState, now time.Time) StudyAnalytics {
	days := int(math.Ceil(st.NextReviewDate.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return StudyAnalytics{
		CardID:           st.CardID,
		RetentionRate:    round2(st.SuccessRate),
		MasteryLevel:     round2(masteryLevel(st)),
		MemoryStrength:   round2(MemoryStrength(st, now)),
		CurrentStreak:    StreakOf(st.QualityHistory),
		LongestStreak:    LongestStreakOf(st.QualityHistory),
		DifficultyTrend:  st.DifficultyTrend,
		TotalReviews:     st.TotalReviews,
		NextReviewInDays: days,
	}
}

// masteryLevel blends recent grade quality with repetition depth: a card is
// not mastered until it has both been answered well and seen often.
func masteryLevel(st *models.CardMemoryState) float64 {
	if len(st.QualityHistory) == 0 {
		return 0
	}
	recentQuality := meanTail(intsToFloats(st.QualityHistory), 5) / 5.0
	repetitionDepth := math.Min(1.0, float64(st.Repetitions)/10.0)
	return math.Min(1.0, recentQuality*repetitionDepth)
}

// MemoryStrength estimates current recall probability with an Ebbinghaus
// decay from the last review, anchored on the card's success rate.
func MemoryStrength(st *models.CardMemoryState, now time.Time) float64 {
	if st.TotalReviews == 0 {
		return 0.1
	}
	daysSince := now.Sub(st.LastReviewDate).Hours() / 24
	if daysSince < 0 {
		daysSince = 0
	}
	halfLife := float64(st.IntervalDays) * 0.5
	if halfLife < 0.5 {
		halfLife = 0.5
	}
	return math.Max(0.1, st.SuccessRate*math.Exp(-daysSince/halfLife))
}

// StreakOf returns the length of the trailing run of passing grades.
func StreakOf(history []int) int {
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] < 3 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreakOf returns the longest run of passing grades in the history.
func LongestStreakOf(history []int) int {
	longest, run := 0, 0
	for _, q := range history {
		if q < 3 {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// SessionPlan is a suggested shape for the next study session.
type SessionPlan struct {
	CardCount        int    `json:"card_count"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	BreakAdvice      string `json:"break_advice"`
}

// PlanSession sizes a session from the due queue. dueCount is the number of
// cards waiting; avgResponseMs is the learner's historical answer time.
func PlanSession(dueCount int, avgResponseMs float64) SessionPlan {
	count := dueCount
	if count > 20 {
		count = 20
	}
	if count < 5 && dueCount >= 5 {
		count = 5
	}
	if count < 1 {
		count = 1
	}

	perCardSec := 30.0
	if avgResponseMs > 0 {
		// Answering is roughly half a review; the rest is reading feedback.
		perCardSec = math.Min(120, math.Max(15, 2*avgResponseMs/1000))
	}
	minutes := int(math.Ceil(float64(count) * perCardSec / 60))

	var advice string
	switch {
	case minutes > 35:
		advice = "Split this into two sessions with a long break between them."
	case minutes > 20:
		advice = "Take a five minute break halfway through."
	default:
		advice = "Short enough to finish in one sitting."
	}

	return SessionPlan{
		CardCount:        count,
		EstimatedMinutes: minutes,
		BreakAdvice:      advice,
	}
}

// UpcomingDay is one day's worth of scheduled reviews.
type UpcomingDay struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// UpcomingReviews groups card states by next-review date over the next
// horizonDays days, including cards already overdue under today's bucket.
// Days with nothing scheduled are omitted.
func UpcomingReviews(states []*models.CardMemoryState, now time.Time, horizonDays int) []UpcomingDay {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := today.AddDate(0, 0, horizonDays)

	counts := make(map[time.Time]int)
	for _, st := range states {
		if st == nil {
			continue
		}
		d := st.NextReviewDate
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(today) {
			day = today
		}
		if !day.Before(horizon) {
			continue
		}
		counts[day]++
	}

	days := make([]UpcomingDay, 0, len(counts))
	for day, n := range counts {
		days = append(days, UpcomingDay{Date: day, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
