package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/internal/database"
)

func setupImportDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, database.Connect())
	t.Cleanup(func() {
		require.NoError(t, database.Close())
		database.DB = nil
	})
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportFromCSV(t *testing.T) {
	setupImportDB(t)

	csv := "Question,Answer,Subject,Topic,Difficulty,Tags\n" +
		"What is 2+2?,4,math,arithmetic,0.2,basics\n" +
		"Capital of France?,Paris,geography,europe,3,capitals\n" +
		"No answer here,,,,\n"

	cfg := DefaultImportConfig()
	cfg.FilePath = writeCSV(t, csv)

	result, err := ImportFlashcards(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Errors, 0)

	cards, err := database.NewFlashcardRepository().GetAll()
	require.NoError(t, err)
	require.Len(t, cards, 2)

	math, err := database.NewFlashcardRepository().GetBySubject("math")
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "What is 2+2?", math[0].Question)
	assert.InDelta(t, 0.2, math[0].Difficulty, 1e-9)

	geo, err := database.NewFlashcardRepository().GetBySubject("geography")
	require.NoError(t, err)
	require.Len(t, geo, 1)
	assert.InDelta(t, 0.6, geo[0].Difficulty, 1e-9, "whole numbers map from the 1-5 scale")
}

func TestImportCSVSubjectHeaders(t *testing.T) {
	setupImportDB(t)

	csv := "Question,Answer\n" +
		"Biology,\n" +
		"What is a cell?,The basic unit of life\n" +
		"Chemistry,\n" +
		"What is H2O?,Water\n"

	cfg := DefaultImportConfig()
	cfg.FilePath = writeCSV(t, csv)

	result, err := ImportFlashcards(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	bio, err := database.NewFlashcardRepository().GetBySubject("Biology")
	require.NoError(t, err)
	require.Len(t, bio, 1)
	assert.Equal(t, "What is a cell?", bio[0].Question)

	chem, err := database.NewFlashcardRepository().GetBySubject("Chemistry")
	require.NoError(t, err)
	assert.Len(t, chem, 1)
}

func TestImportReRunUpdatesInsteadOfDuplicating(t *testing.T) {
	setupImportDB(t)

	cfg := DefaultImportConfig()
	cfg.FilePath = writeCSV(t, "Question,Answer,Subject\nWhat is 2+2?,4,math\n")

	_, err := ImportFlashcards(cfg)
	require.NoError(t, err)

	cfg.FilePath = writeCSV(t, "Question,Answer,Subject\nWhat is 2+2?,four,math\n")
	result, err := ImportFlashcards(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	cards, err := database.NewFlashcardRepository().GetAll()
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "four", cards[0].Answer)
}

func TestParseDifficulty(t *testing.T) {
	assert.Equal(t, 0.5, parseDifficulty(""))
	assert.Equal(t, 0.5, parseDifficulty("hard"))
	assert.Equal(t, 0.3, parseDifficulty("0.3"))
	assert.Equal(t, 0.4, parseDifficulty("2"))
	assert.Equal(t, 1.0, parseDifficulty("9"))
	assert.Equal(t, 0.0, parseDifficulty("-1"))
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 5, columnToIndex("F"))
	assert.Equal(t, 26, columnToIndex("AA"))
}
