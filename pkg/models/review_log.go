package models

import "time"

// ReviewLog is one append-only record of a scheduled review event.
type ReviewLog struct {
	ID             string    `json:"id" db:"id"` // uuid
	UserID         int64     `json:"user_id" db:"user_id"`
	CardID         int64     `json:"card_id" db:"card_id"`
	Quality        int       `json:"quality" db:"quality"`
	ResponseTimeMs int64     `json:"response_time_ms" db:"response_time_ms"`
	IntervalDays   int       `json:"interval_days" db:"interval_days"`
	EaseFactor     float64   `json:"ease_factor" db:"ease_factor"`
	UsedFallback   bool      `json:"used_fallback" db:"used_fallback"`
	ReviewedAt     time.Time `json:"reviewed_at" db:"reviewed_at"`
}
