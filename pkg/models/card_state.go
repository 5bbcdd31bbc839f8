package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Difficulty trend values derived from the recent quality history slope.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// CardMemoryState tracks a learner's memory of a single flashcard.
// One row exists per (user, card) pair; the scheduling engine computes the
// next state as a value and the storage layer persists it with a
// compare-and-set on Version.
type CardMemoryState struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"user_id" db:"user_id"`
	CardID int64 `json:"card_id" db:"card_id"`

	// SM-2 core fields.
	EaseFactor     float64   `json:"ease_factor" db:"ease_factor"`         // retention multiplier, never below 1.3
	IntervalDays   int       `json:"interval_days" db:"interval_days"`     // days until next review, at least 1
	Repetitions    int       `json:"repetitions" db:"repetitions"`         // consecutive correct recalls
	NextReviewDate time.Time `json:"next_review_date" db:"next_review_date"`
	LastReviewDate time.Time `json:"last_review_date" db:"last_review_date"`

	// Running aggregates recomputed on every review.
	QualityHistory        IntList `json:"quality_history" db:"quality_history"` // most recent grades, capped at HistoryCap
	TotalReviews          int     `json:"total_reviews" db:"total_reviews"`
	SuccessRate           float64 `json:"success_rate" db:"success_rate"` // share of grades >= 3 in the history
	AverageResponseTimeMs float64 `json:"average_response_time_ms" db:"average_response_time_ms"`
	DifficultyTrend       string  `json:"difficulty_trend" db:"difficulty_trend"`

	// Adaptive extension fields populated from reasoning analysis.
	ReasoningDepthHistory          FloatList `json:"reasoning_depth_history" db:"reasoning_depth_history"`
	PatternRecognitionHistory      FloatList `json:"pattern_recognition_history" db:"pattern_recognition_history"`
	CognitiveLoadHistory           FloatList `json:"cognitive_load_history" db:"cognitive_load_history"`
	AdaptiveDifficultyLevel        float64   `json:"adaptive_difficulty_level" db:"adaptive_difficulty_level"`   // 0-1
	HRMConfidenceScore             float64   `json:"hrm_confidence_score" db:"hrm_confidence_score"`             // 0-1
	PersonalizedIntervalMultiplier float64   `json:"personalized_interval_multiplier" db:"personalized_interval_multiplier"` // [0.5, 2.0]

	// Version guards read-modify-write cycles; see CardStateRepository.UpdateCAS.
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewCardMemoryState returns the initial state for a card's first review.
func NewCardMemoryState(userID, cardID int64) *CardMemoryState {
	return &CardMemoryState{
		UserID:                         userID,
		CardID:                         cardID,
		EaseFactor:                     2.5,
		IntervalDays:                   1,
		Repetitions:                    0,
		DifficultyTrend:                TrendStable,
		PersonalizedIntervalMultiplier: 1.0,
	}
}

// IsDue reports whether the card should be reviewed at the given time.
func (s *CardMemoryState) IsDue(now time.Time) bool {
	return !s.NextReviewDate.After(now)
}

// OverdueDays returns how many whole days the card is past due, never negative.
func (s *CardMemoryState) OverdueDays(now time.Time) int {
	if s.NextReviewDate.After(now) {
		return 0
	}
	return int(now.Sub(s.NextReviewDate).Hours() / 24)
}

// IntList stores a bounded integer history as a JSON column.
type IntList []int

// Value implements driver.Valuer.
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *IntList) Scan(src interface{}) error {
	return scanJSONList(src, l)
}

// FloatList stores a bounded float history as a JSON column.
type FloatList []float64

// Value implements driver.Valuer.
func (l FloatList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *FloatList) Scan(src interface{}) error {
	return scanJSONList(src, l)
}

func scanJSONList(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into history list", src)
	}
}
