package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/srsengine/pkg/models"
)

// ErrInvalidInput is returned when a review response violates the caller
// contract (grade outside 0..5 or a negative response time). No state is
// mutated when it is returned.
var ErrInvalidInput = errors.New("invalid review input")

// SM2 implements the SuperMemo-2 memory-strength algorithm
type SM2 struct {
	// Grades at or above this value count as successful recall
	PassThreshold int
	// Maximum review interval in days
	MaxInterval int
	// Interval used after the second consecutive successful recall
	SecondInterval int
}

// NewSM2 creates a new SM2 instance with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  3,
		MaxInterval:    365,
		SecondInterval: 6,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Outcome is the grade band a review falls into. Classifying once up front
// keeps the threshold check out of every branch below.
type Outcome int

const (
	// OutcomeFail covers grades 0-2: recall failed, progress resets
	OutcomeFail Outcome = iota
	// OutcomeSuccess covers grades 3-5: recall succeeded, interval grows
	OutcomeSuccess
)

// Classify maps a 0-5 grade onto its outcome band
func (sm *SM2) Classify(quality int) Outcome {
	if quality >= sm.PassThreshold {
		return OutcomeSuccess
	}
	return OutcomeFail
}

// Result is the proposed schedule computed from one review
type Result struct {
	EaseFactor     float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate time.Time
	Feedback       models.PerformanceFeedback
}

// ComputeBase applies the SM-2 rule to the prior card state and a review
// response. A nil prior means this is the card's first review and defaults
// are used (ease 2.5, no repetitions). The function is pure: the prior state
// is never modified.
func (sm *SM2) ComputeBase(prior *models.CardMemoryState, resp models.ReviewResponse, now time.Time) (*Result, error) {
	if resp.Quality < 0 || resp.Quality > 5 {
		return nil, fmt.Errorf("%w: quality %d outside 0..5", ErrInvalidInput, resp.Quality)
	}
	if resp.ResponseTimeMs < 0 {
		return nil, fmt.Errorf("%w: negative response time %d", ErrInvalidInput, resp.ResponseTimeMs)
	}

	easeFactor := 2.5
	interval := 1
	repetitions := 0
	if prior != nil {
		easeFactor = prior.EaseFactor
		interval = prior.IntervalDays
		repetitions = prior.Repetitions
	}

	newEF := NextEaseFactor(easeFactor, resp.Quality)

	switch sm.Classify(resp.Quality) {
	case OutcomeSuccess:
		repetitions++
		switch {
		case repetitions == 1:
			interval = 1
		case repetitions == 2:
			interval = sm.SecondInterval
		default:
			interval = int(math.Round(float64(interval) * easeFactor))
		}
		if interval > sm.MaxInterval {
			interval = sm.MaxInterval
		}
	case OutcomeFail:
		// Failed recall resets the learning sequence
		repetitions = 0
		interval = 1
	}
	if interval < 1 {
		interval = 1
	}

	return &Result{
		EaseFactor:     newEF,
		IntervalDays:   interval,
		Repetitions:    repetitions,
		NextReviewDate: now.AddDate(0, 0, interval),
		Feedback:       feedbackFor(resp.Quality, interval),
	}, nil
}

// NextEaseFactor applies the SM-2 easiness update for a 0-5 grade.
// Grades near 5 raise the factor, a bare pass lowers it slightly, and
// failures lower it sharply. The result never drops below 1.3.
func NextEaseFactor(current float64, quality int) float64 {
	q := float64(quality)
	next := current + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if next < 1.3 {
		next = 1.3
	}
	return next
}

// feedbackFor generates display text from the grade band. The messages are
// informational only; nothing dispatches on them.
func feedbackFor(quality, intervalDays int) models.PerformanceFeedback {
	switch {
	case quality == 5:
		return models.PerformanceFeedback{
			Level:                     "excellent",
			Message:                   "Perfect recall. You have mastered this card.",
			NextSessionRecommendation: fmt.Sprintf("Next review in %d days. Keep up the excellent work!", intervalDays),
		}
	case quality == 4:
		return models.PerformanceFeedback{
			Level:                     "good",
			Message:                   "Good recall. You are building strong memory traces.",
			NextSessionRecommendation: fmt.Sprintf("Review again in %d days to reinforce learning.", intervalDays),
		}
	case quality == 3:
		return models.PerformanceFeedback{
			Level:                     "fair",
			Message:                   "Correct but effortful. Consider revisiting the concept.",
			NextSessionRecommendation: fmt.Sprintf("Shortened growth: next review in %d days for better retention.", intervalDays),
		}
	case quality >= 1:
		return models.PerformanceFeedback{
			Level:                     "poor",
			Message:                   "Difficulty recalling. Additional study recommended.",
			NextSessionRecommendation: "Review tomorrow and consider studying related concepts.",
		}
	default:
		return models.PerformanceFeedback{
			Level:                     "poor",
			Message:                   "Complete blackout. This card needs to be relearned.",
			NextSessionRecommendation: "Review tomorrow, starting from the answer side of the card.",
		}
	}
}
