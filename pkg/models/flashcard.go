package models

import "time"

// Flashcard represents a single question/answer card in the catalog.
type Flashcard struct {
	ID         int64     `json:"id" db:"id"`
	Subject    string    `json:"subject" db:"subject"`
	Topic      string    `json:"topic" db:"topic"`
	Question   string    `json:"question" db:"question"`
	Answer     string    `json:"answer" db:"answer"`
	Difficulty float64   `json:"difficulty" db:"difficulty"` // 0-1 authored difficulty
	Tags       string    `json:"tags" db:"tags"`             // comma separated
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
