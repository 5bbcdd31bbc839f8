package database

import (
	"fmt"
	"time"

	"github.com/example/srsengine/pkg/models"
)

// QuizResultRepository handles database operations for quiz results
type QuizResultRepository struct{}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository() *QuizResultRepository {
	return &QuizResultRepository{}
}

// Create inserts a finished quiz's result
func (r *QuizResultRepository) Create(result *models.QuizResult) error {
	if result.TakenAt.IsZero() {
		result.TakenAt = time.Now()
	}

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO quiz_results (user_id, quiz_type, total_cards, correct_cards, subject, duration_sec, taken_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		return DB.QueryRow(
			query,
			result.UserID, result.QuizType, result.TotalCards, result.CorrectCards,
			result.Subject, result.DurationSec, result.TakenAt,
		).Scan(&result.ID)
	}

	query := `
		INSERT INTO quiz_results (user_id, quiz_type, total_cards, correct_cards, subject, duration_sec, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := DB.Exec(
		query,
		result.UserID, result.QuizType, result.TotalCards, result.CorrectCards,
		result.Subject, result.DurationSec, result.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz result: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	result.ID = id
	return nil
}

// ListForUser returns the user's quiz history, newest first
func (r *QuizResultRepository) ListForUser(userID int64, limit int) ([]models.QuizResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var results []models.QuizResult

	query := "SELECT * FROM quiz_results WHERE user_id = ? ORDER BY taken_at DESC LIMIT ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM quiz_results WHERE user_id = $1 ORDER BY taken_at DESC LIMIT $2"
	}

	err := DB.Select(&results, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %v", err)
	}
	return results, nil
}
