package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

// setupTestDB points the global connection at a throwaway SQLite file and
// tears it down with the test.
func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, Connect())
	t.Cleanup(func() {
		require.NoError(t, Close())
		DB = nil
	})
}

func createTestUser(t *testing.T, telegramID int64) *models.User {
	t.Helper()
	user, err := NewUserRepository().GetOrCreateByTelegramID(telegramID, "tester", "Test")
	require.NoError(t, err)
	return user
}

func createTestCard(t *testing.T, subject, question string) *models.Flashcard {
	t.Helper()
	card := &models.Flashcard{
		Subject:  subject,
		Topic:    "basics",
		Question: question,
		Answer:   "answer to " + question,
	}
	require.NoError(t, NewFlashcardRepository().Create(card))
	return card
}
