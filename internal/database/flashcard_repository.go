package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/srsengine/pkg/models"
)

// FlashcardRepository handles database operations for flashcards
type FlashcardRepository struct{}

// NewFlashcardRepository creates a new repository instance
func NewFlashcardRepository() *FlashcardRepository {
	return &FlashcardRepository{}
}

// GetAll returns all flashcards
func (r *FlashcardRepository) GetAll() ([]models.Flashcard, error) {
	var cards []models.Flashcard
	err := DB.Select(&cards, "SELECT * FROM flashcards ORDER BY subject, topic, id")
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcards: %v", err)
	}
	return cards, nil
}

// GetByID returns a flashcard by ID
func (r *FlashcardRepository) GetByID(id int64) (*models.Flashcard, error) {
	var card models.Flashcard

	query := "SELECT * FROM flashcards WHERE id = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM flashcards WHERE id = $1"
	}

	err := DB.Get(&card, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcard by ID: %v", err)
	}
	return &card, nil
}

// GetBySubject returns flashcards for a specific subject
func (r *FlashcardRepository) GetBySubject(subject string) ([]models.Flashcard, error) {
	var cards []models.Flashcard

	query := "SELECT * FROM flashcards WHERE subject = ? ORDER BY topic, id"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM flashcards WHERE subject = $1 ORDER BY topic, id"
	}

	err := DB.Select(&cards, query, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcards by subject: %v", err)
	}
	return cards, nil
}

// Subjects returns the distinct subjects present in the card bank.
func (r *FlashcardRepository) Subjects() ([]string, error) {
	var subjects []string
	err := DB.Select(&subjects, "SELECT DISTINCT subject FROM flashcards ORDER BY subject")
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %v", err)
	}
	return subjects, nil
}

// Create inserts a new flashcard
func (r *FlashcardRepository) Create(card *models.Flashcard) error {
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO flashcards (subject, topic, question, answer, difficulty, tags)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRow(
			query,
			card.Subject, card.Topic, card.Question, card.Answer, card.Difficulty, card.Tags,
		).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	}

	query := `
		INSERT INTO flashcards (subject, topic, question, answer, difficulty, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	result, err := DB.Exec(query, card.Subject, card.Topic, card.Question, card.Answer, card.Difficulty, card.Tags)
	if err != nil {
		return fmt.Errorf("failed to create flashcard: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	card.ID = id
	return nil
}

// Update overwrites an existing flashcard's content.
func (r *FlashcardRepository) Update(card *models.Flashcard) error {
	query := `
		UPDATE flashcards
		SET subject = ?, topic = ?, question = ?, answer = ?, difficulty = ?, tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if DB.DriverName() == "postgres" {
		query = `
			UPDATE flashcards
			SET subject = $1, topic = $2, question = $3, answer = $4, difficulty = $5, tags = $6, updated_at = CURRENT_TIMESTAMP
			WHERE id = $7
		`
	}

	_, err := DB.Exec(query, card.Subject, card.Topic, card.Question, card.Answer, card.Difficulty, card.Tags, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update flashcard: %v", err)
	}
	return nil
}

// CreateOrUpdate upserts by the (subject, question) pair. Used by the
// importer so re-importing the same spreadsheet refreshes instead of
// duplicating.
func (r *FlashcardRepository) CreateOrUpdate(card *models.Flashcard) (created bool, err error) {
	var existing models.Flashcard

	query := "SELECT * FROM flashcards WHERE subject = ? AND question = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM flashcards WHERE subject = $1 AND question = $2"
	}

	err = DB.Get(&existing, query, card.Subject, card.Question)
	if errors.Is(err, sql.ErrNoRows) {
		return true, r.Create(card)
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up flashcard: %v", err)
	}

	card.ID = existing.ID
	return false, r.Update(card)
}

// Delete removes a flashcard by ID
func (r *FlashcardRepository) Delete(id int64) error {
	query := "DELETE FROM flashcards WHERE id = ?"
	if DB.DriverName() == "postgres" {
		query = "DELETE FROM flashcards WHERE id = $1"
	}

	_, err := DB.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard: %v", err)
	}
	return nil
}
