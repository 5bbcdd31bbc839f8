package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/srsengine/pkg/models"
)

// CardStateRepository handles database operations for per-user card memory states
type CardStateRepository struct{}

// NewCardStateRepository creates a new repository instance
func NewCardStateRepository() *CardStateRepository {
	return &CardStateRepository{}
}

// Get returns the memory state for one user/card pair, or nil if the card
// has never been reviewed by this user.
func (r *CardStateRepository) Get(userID, cardID int64) (*models.CardMemoryState, error) {
	var state models.CardMemoryState

	query := "SELECT * FROM card_states WHERE user_id = ? AND card_id = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM card_states WHERE user_id = $1 AND card_id = $2"
	}

	err := DB.Get(&state, query, userID, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card state: %v", err)
	}
	return &state, nil
}

// Create inserts a brand-new state at version 1.
func (r *CardStateRepository) Create(state *models.CardMemoryState) error {
	state.Version = 1
	now := time.Now()
	state.CreatedAt = now
	state.UpdatedAt = now

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO card_states (
				user_id, card_id, ease_factor, interval_days, repetitions,
				next_review_date, last_review_date, quality_history,
				total_reviews, success_rate, average_response_time_ms,
				difficulty_trend, reasoning_depth_history,
				pattern_recognition_history, cognitive_load_history,
				adaptive_difficulty_level, hrm_confidence_score,
				personalized_interval_multiplier, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			RETURNING id
		`
		return DB.QueryRow(
			query,
			state.UserID, state.CardID, state.EaseFactor, state.IntervalDays, state.Repetitions,
			state.NextReviewDate, state.LastReviewDate, state.QualityHistory,
			state.TotalReviews, state.SuccessRate, state.AverageResponseTimeMs,
			state.DifficultyTrend, state.ReasoningDepthHistory,
			state.PatternRecognitionHistory, state.CognitiveLoadHistory,
			state.AdaptiveDifficultyLevel, state.HRMConfidenceScore,
			state.PersonalizedIntervalMultiplier, state.Version, state.CreatedAt, state.UpdatedAt,
		).Scan(&state.ID)
	}

	query := `
		INSERT INTO card_states (
			user_id, card_id, ease_factor, interval_days, repetitions,
			next_review_date, last_review_date, quality_history,
			total_reviews, success_rate, average_response_time_ms,
			difficulty_trend, reasoning_depth_history,
			pattern_recognition_history, cognitive_load_history,
			adaptive_difficulty_level, hrm_confidence_score,
			personalized_interval_multiplier, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := DB.Exec(
		query,
		state.UserID, state.CardID, state.EaseFactor, state.IntervalDays, state.Repetitions,
		state.NextReviewDate, state.LastReviewDate, state.QualityHistory,
		state.TotalReviews, state.SuccessRate, state.AverageResponseTimeMs,
		state.DifficultyTrend, state.ReasoningDepthHistory,
		state.PatternRecognitionHistory, state.CognitiveLoadHistory,
		state.AdaptiveDifficultyLevel, state.HRMConfidenceScore,
		state.PersonalizedIntervalMultiplier, state.Version, state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create card state: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	state.ID = id
	return nil
}

// UpdateCAS overwrites the state only if the row still carries the version
// the caller read. A lost race returns ErrStorageConflict; on success the
// state's version is bumped in place.
func (r *CardStateRepository) UpdateCAS(state *models.CardMemoryState) error {
	state.UpdatedAt = time.Now()

	query := `
		UPDATE card_states SET
			ease_factor = ?, interval_days = ?, repetitions = ?,
			next_review_date = ?, last_review_date = ?, quality_history = ?,
			total_reviews = ?, success_rate = ?, average_response_time_ms = ?,
			difficulty_trend = ?, reasoning_depth_history = ?,
			pattern_recognition_history = ?, cognitive_load_history = ?,
			adaptive_difficulty_level = ?, hrm_confidence_score = ?,
			personalized_interval_multiplier = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	if DB.DriverName() == "postgres" {
		for i := 1; strings.Contains(query, "?"); i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}

	result, err := DB.Exec(
		query,
		state.EaseFactor, state.IntervalDays, state.Repetitions,
		state.NextReviewDate, state.LastReviewDate, state.QualityHistory,
		state.TotalReviews, state.SuccessRate, state.AverageResponseTimeMs,
		state.DifficultyTrend, state.ReasoningDepthHistory,
		state.PatternRecognitionHistory, state.CognitiveLoadHistory,
		state.AdaptiveDifficultyLevel, state.HRMConfidenceScore,
		state.PersonalizedIntervalMultiplier, state.UpdatedAt,
		state.ID, state.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %v", err)
	}
	if rows == 0 {
		return ErrStorageConflict
	}
	state.Version++
	return nil
}

// DueForUser returns every state due at or before now for the given user.
func (r *CardStateRepository) DueForUser(userID int64, now time.Time) ([]*models.CardMemoryState, error) {
	var states []*models.CardMemoryState

	query := "SELECT * FROM card_states WHERE user_id = ? AND next_review_date <= ? ORDER BY next_review_date"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM card_states WHERE user_id = $1 AND next_review_date <= $2 ORDER BY next_review_date"
	}

	err := DB.Select(&states, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due card states: %v", err)
	}
	return states, nil
}

// ForUser returns all states the user has, due or not.
func (r *CardStateRepository) ForUser(userID int64) ([]*models.CardMemoryState, error) {
	var states []*models.CardMemoryState

	query := "SELECT * FROM card_states WHERE user_id = ? ORDER BY next_review_date"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM card_states WHERE user_id = $1 ORDER BY next_review_date"
	}

	err := DB.Select(&states, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card states: %v", err)
	}
	return states, nil
}

// UserStatistics aggregates a user's learning numbers for the /stats report.
type UserStatistics struct {
	TotalCards      int     `db:"total_cards"`
	TotalReviews    int     `db:"total_reviews"`
	AverageSuccess  float64 `db:"average_success"`
	AverageEase     float64 `db:"average_ease"`
	AverageInterval float64 `db:"average_interval"`
}

// GetUserStatistics computes aggregate statistics across a user's states.
func (r *CardStateRepository) GetUserStatistics(userID int64) (*UserStatistics, error) {
	var stats UserStatistics

	query := `
		SELECT
			COUNT(*) AS total_cards,
			COALESCE(SUM(total_reviews), 0) AS total_reviews,
			COALESCE(AVG(success_rate), 0) AS average_success,
			COALESCE(AVG(ease_factor), 0) AS average_ease,
			COALESCE(AVG(interval_days), 0) AS average_interval
		FROM card_states
		WHERE user_id = ?
	`
	if DB.DriverName() == "postgres" {
		query = strings.Replace(query, "?", "$1", 1)
	}

	err := DB.Get(&stats, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user statistics: %v", err)
	}
	return &stats, nil
}
