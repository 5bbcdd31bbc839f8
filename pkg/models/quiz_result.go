package models

import "time"

// QuizResult records the outcome of one self-assessment quiz.
type QuizResult struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	QuizType     string    `json:"quiz_type" db:"quiz_type"`
	TotalCards   int       `json:"total_cards" db:"total_cards"`
	CorrectCards int       `json:"correct_cards" db:"correct_cards"`
	Subject      string    `json:"subject" db:"subject"`
	DurationSec  int       `json:"duration_sec" db:"duration_sec"`
	TakenAt      time.Time `json:"taken_at" db:"taken_at"`
}
