package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/srsengine/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	var user models.User

	query := "SELECT * FROM users WHERE id = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM users WHERE id = $1"
	}

	err := DB.Get(&user, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// GetByTelegramID returns a user by Telegram ID, or nil if unknown.
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User

	query := "SELECT * FROM users WHERE telegram_id = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM users WHERE telegram_id = $1"
	}

	err := DB.Get(&user, query, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %v", err)
	}
	return &user, nil
}

// GetOrCreateByTelegramID looks up the user and registers them with default
// settings on first contact.
func (r *UserRepository) GetOrCreateByTelegramID(telegramID int64, username, firstName string) (*models.User, error) {
	user, err := r.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		TelegramID:          telegramID,
		Username:            username,
		FirstName:           firstName,
		CardsPerDay:         10,
		NotificationHour:    9,
		NotificationEnabled: true,
	}
	if err := r.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO users (telegram_id, username, first_name, cards_per_day, notification_hour, notification_enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRow(
			query,
			user.TelegramID, user.Username, user.FirstName,
			user.CardsPerDay, user.NotificationHour, user.NotificationEnabled,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	}

	query := `
		INSERT INTO users (telegram_id, username, first_name, cards_per_day, notification_hour, notification_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	result, err := DB.Exec(
		query,
		user.TelegramID, user.Username, user.FirstName,
		user.CardsPerDay, user.NotificationHour, user.NotificationEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	user.ID = id
	return nil
}

// Update persists changed user settings
func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET username = ?, first_name = ?, cards_per_day = ?, notification_hour = ?, notification_enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if DB.DriverName() == "postgres" {
		query = `
			UPDATE users
			SET username = $1, first_name = $2, cards_per_day = $3, notification_hour = $4, notification_enabled = $5, updated_at = CURRENT_TIMESTAMP
			WHERE id = $6
		`
	}

	_, err := DB.Exec(
		query,
		user.Username, user.FirstName, user.CardsPerDay,
		user.NotificationHour, user.NotificationEnabled, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	return nil
}

// GetUsersForNotification returns users with reminders enabled for the hour
func (r *UserRepository) GetUsersForNotification(hour int) ([]models.User, error) {
	var users []models.User

	query := "SELECT * FROM users WHERE notification_enabled = ? AND notification_hour = ?"
	if DB.DriverName() == "postgres" {
		query = "SELECT * FROM users WHERE notification_enabled = $1 AND notification_hour = $2"
	}

	err := DB.Select(&users, query, true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}
