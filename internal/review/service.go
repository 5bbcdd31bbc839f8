// Package review is the application service for the scheduler: it loads
// card state, runs the adaptive engine, and persists the outcome with
// optimistic concurrency.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/srsengine/internal/adaptive"
	"github.com/example/srsengine/internal/database"
	"github.com/example/srsengine/pkg/models"
)

// DueCard pairs a prioritized state with its flashcard content.
type DueCard struct {
	Card           *models.Flashcard
	State          *models.CardMemoryState
	PriorityScore  float64
	PriorityReason string
}

// Service orchestrates review processing
type Service struct {
	engine *adaptive.Engine
	states *database.CardStateRepository
	cards  *database.FlashcardRepository
	log    *database.ReviewLogRepository
}

// NewService creates the review service
func NewService(engine *adaptive.Engine) *Service {
	return &Service{
		engine: engine,
		states: database.NewCardStateRepository(),
		cards:  database.NewFlashcardRepository(),
		log:    database.NewReviewLogRepository(),
	}
}

// ReviewCard processes one graded review end to end: schedule, persist,
// log. On a concurrent modification it re-reads the state and retries the
// whole computation once; a second conflict surfaces as ErrStorageConflict.
func (s *Service) ReviewCard(ctx context.Context, userID, cardID int64, resp models.ReviewResponse, rctx models.ReviewContext) (*models.AdaptiveResult, error) {
	now := time.Now()

	for attempt := 0; attempt < 2; attempt++ {
		prior, err := s.states.Get(userID, cardID)
		if err != nil {
			return nil, err
		}

		result, err := s.engine.Schedule(ctx, userID, cardID, prior, resp, rctx, now)
		if err != nil {
			return nil, err
		}

		if prior == nil {
			err = s.states.Create(result.State)
		} else {
			err = s.states.UpdateCAS(result.State)
		}
		if errors.Is(err, database.ErrStorageConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}

		entry := &models.ReviewLog{
			UserID:         userID,
			CardID:         cardID,
			Quality:        resp.Quality,
			ResponseTimeMs: resp.ResponseTimeMs,
			IntervalDays:   result.State.IntervalDays,
			EaseFactor:     result.State.EaseFactor,
			UsedFallback:   result.UsedFallback,
			ReviewedAt:     now,
		}
		if err := s.log.Create(entry); err != nil {
			return nil, fmt.Errorf("review scheduled but logging failed: %v", err)
		}
		return result, nil
	}
	return nil, database.ErrStorageConflict
}

// DueCards returns the user's due queue, most urgent first, with flashcard
// content attached.
func (s *Service) DueCards(ctx context.Context, userID int64) ([]DueCard, error) {
	now := time.Now()

	states, err := s.states.DueForUser(userID, now)
	if err != nil {
		return nil, err
	}

	prioritized := adaptive.Prioritize(states, now)
	due := make([]DueCard, 0, len(prioritized))
	for _, p := range prioritized {
		card, err := s.cards.GetByID(p.State.CardID)
		if err != nil {
			// The card may have been deleted after the state was written.
			continue
		}
		due = append(due, DueCard{
			Card:           card,
			State:          p.State,
			PriorityScore:  p.PriorityScore,
			PriorityReason: p.PriorityReason,
		})
	}
	return due, nil
}

// NewCards returns flashcards the user has never reviewed, up to limit.
func (s *Service) NewCards(ctx context.Context, userID int64, limit int) ([]models.Flashcard, error) {
	if limit <= 0 {
		limit = 10
	}

	cards, err := s.cards.GetAll()
	if err != nil {
		return nil, err
	}
	states, err := s.states.ForUser(userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(states))
	for _, st := range states {
		seen[st.CardID] = true
	}

	fresh := make([]models.Flashcard, 0, limit)
	for _, card := range cards {
		if seen[card.ID] {
			continue
		}
		fresh = append(fresh, card)
		if len(fresh) == limit {
			break
		}
	}
	return fresh, nil
}

// Upcoming returns the user's review forecast for the next days.
func (s *Service) Upcoming(ctx context.Context, userID int64, days int) ([]adaptive.UpcomingDay, error) {
	states, err := s.states.ForUser(userID)
	if err != nil {
		return nil, err
	}
	return adaptive.UpcomingReviews(states, time.Now(), days), nil
}

// CardAnalytics returns the analytics snapshot for one of the user's cards.
func (s *Service) CardAnalytics(ctx context.Context, userID, cardID int64) (*adaptive.StudyAnalytics, error) {
	state, err := s.states.Get(userID, cardID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no review history for card %d", cardID)
	}
	a := adaptive.AnalyzeCard(state, time.Now())
	return &a, nil
}

// Statistics returns the user's aggregate learning numbers.
func (s *Service) Statistics(ctx context.Context, userID int64) (*database.UserStatistics, error) {
	return s.states.GetUserStatistics(userID)
}

// PlanSession sizes the user's next study session from their due queue.
func (s *Service) PlanSession(ctx context.Context, userID int64) (*adaptive.SessionPlan, error) {
	states, err := s.states.DueForUser(userID, time.Now())
	if err != nil {
		return nil, err
	}

	var avgMs float64
	if len(states) > 0 {
		for _, st := range states {
			avgMs += st.AverageResponseTimeMs
		}
		avgMs /= float64(len(states))
	}

	plan := adaptive.PlanSession(len(states), avgMs)
	return &plan, nil
}
