package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/srsengine/internal/database"
	"github.com/example/srsengine/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	QuestionColumn   string // Column with the question
	AnswerColumn     string // Column with the answer
	SubjectColumn    string // Column with the subject
	TopicColumn      string // Column with the topic
	DifficultyColumn string // Column with the difficulty (0..1)
	TagsColumn       string // Column with comma-separated tags
	SheetName        string // Name of the sheet to import
	StartRow         int    // The row to start importing from (1-based index)
	DefaultSubject   string // Subject used when the column is empty
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		QuestionColumn:   "A",
		AnswerColumn:     "B",
		SubjectColumn:    "C",
		TopicColumn:      "D",
		DifficultyColumn: "E",
		TagsColumn:       "F",
		SheetName:        "Sheet1",
		StartRow:         2, // By default, start from the second row (skip header)
		DefaultSubject:   "General",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportFlashcards imports flashcards from an Excel or CSV file
func ImportFlashcards(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel imports flashcards from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	cardRepo := database.NewFlashcardRepository()

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}

		result.TotalProcessed++

		card, err := cardFromRow(row, config)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if err := upsertCard(card, cardRepo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports flashcards from a CSV file. The column order follows
// the same config as Excel; a row whose answer cell is empty is treated as a
// subject header that applies to the rows below it.
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	cardRepo := database.NewFlashcardRepository()

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rowNum := 0
	currentSubject := config.DefaultSubject

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		// Subject header row: first cell filled, second empty
		if len(row) >= 2 && strings.TrimSpace(row[0]) != "" && strings.TrimSpace(row[1]) == "" {
			header := strings.Trim(strings.TrimSpace(row[0]), "\"")
			if header != "" {
				currentSubject = header
				continue
			}
		}

		result.TotalProcessed++

		card, err := cardFromRow(row, config)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if card.Subject == config.DefaultSubject {
			card.Subject = currentSubject
		}
		if err := upsertCard(card, cardRepo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// cardFromRow extracts a flashcard from one spreadsheet row
func cardFromRow(row []string, config ImportConfig) (*models.Flashcard, error) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	question := cell(config.QuestionColumn)
	answer := cell(config.AnswerColumn)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if answer == "" {
		return nil, fmt.Errorf("answer cannot be empty")
	}

	subject := cell(config.SubjectColumn)
	if subject == "" {
		subject = config.DefaultSubject
	}

	return &models.Flashcard{
		Subject:    subject,
		Topic:      cell(config.TopicColumn),
		Question:   question,
		Answer:     answer,
		Difficulty: parseDifficulty(cell(config.DifficultyColumn)),
		Tags:       cell(config.TagsColumn),
	}, nil
}

// upsertCard writes the card through the repository and tallies the outcome
func upsertCard(card *models.Flashcard, repo *database.FlashcardRepository, result *ImportResult) error {
	created, err := repo.CreateOrUpdate(card)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

// parseDifficulty reads a 0..1 difficulty, falling back to 0.5. Whole
// numbers 1..5 are accepted as a legacy scale and mapped onto 0..1.
func parseDifficulty(s string) float64 {
	if s == "" {
		return 0.5
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.5
	}
	if val > 1 && val <= 5 {
		val = val / 5.0
	}
	if val < 0 {
		return 0
	}
	if val > 1 {
		return 1
	}
	return val
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
