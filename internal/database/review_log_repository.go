package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/srsengine/pkg/models"
)

// ReviewLogRepository handles the append-only review audit log
type ReviewLogRepository struct{}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository() *ReviewLogRepository {
	return &ReviewLogRepository{}
}

// Create appends one review event. The entry gets a fresh UUID and, if
// unset, the current time.
func (r *ReviewLogRepository) Create(entry *models.ReviewLog) error {
	entry.ID = uuid.NewString()
	if entry.ReviewedAt.IsZero() {
		entry.ReviewedAt = time.Now()
	}

	query := `
		INSERT INTO review_log (id, user_id, card_id, quality, response_time_ms, interval_days, ease_factor, used_fallback, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if DB.DriverName() == "postgres" {
		query = `
			INSERT INTO review_log (id, user_id, card_id, quality, response_time_ms, interval_days, ease_factor, used_fallback, reviewed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
	}

	_, err := DB.Exec(
		query,
		entry.ID, entry.UserID, entry.CardID, entry.Quality, entry.ResponseTimeMs,
		entry.IntervalDays, entry.EaseFactor, entry.UsedFallback, entry.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review log entry: %v", err)
	}
	return nil
}

// ListForUser returns the user's most recent review events, newest first.
func (r *ReviewLogRepository) ListForUser(userID int64, limit int) ([]models.ReviewLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []models.ReviewLog

	query := "SELECT * FROM review_log WHERE user_id = ? ORDER BY reviewed_at DESC LIMIT ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM review_log WHERE user_id = $1 ORDER BY reviewed_at DESC LIMIT $2"
	}

	err := DB.Select(&entries, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log: %v", err)
	}
	return entries, nil
}

// CountSince returns how many reviews the user did at or after since.
func (r *ReviewLogRepository) CountSince(userID int64, since time.Time) (int, error) {
	var count int

	query := "SELECT COUNT(*) FROM review_log WHERE user_id = ? AND reviewed_at >= ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT COUNT(*) FROM review_log WHERE user_id = $1 AND reviewed_at >= $2"
	}

	err := DB.Get(&count, query, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %v", err)
	}
	return count, nil
}
