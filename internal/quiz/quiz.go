// Package quiz builds self-check quizzes from the flashcard bank. Quizzes
// are separate from scheduled reviews: they don't touch the spaced
// repetition state, only record their own results.
package quiz

import (
	"math/rand"
	"time"

	"github.com/example/srsengine/internal/database"
	"github.com/example/srsengine/pkg/models"
)

// Module handles knowledge testing functionality
type Module struct {
	cardRepo   *database.FlashcardRepository
	resultRepo *database.QuizResultRepository
}

// NewModule creates a new quiz module
func NewModule() *Module {
	return &Module{
		cardRepo:   database.NewFlashcardRepository(),
		resultRepo: database.NewQuizResultRepository(),
	}
}

// QuizType represents different types of quizzes
type QuizType string

const (
	// MultipleChoice represents a multiple choice quiz
	MultipleChoice QuizType = "multiple_choice"
	// TextInput represents a quiz where the user types the answer
	TextInput QuizType = "text_input"
)

// Question represents a single quiz question
type Question struct {
	Card         models.Flashcard // The card being tested
	Options      []string         // Possible answers (for multiple choice)
	CorrectIndex int              // Index of correct answer in options
	QuestionType QuizType         // Type of question
}

// CreateQuiz generates a quiz over the given subject ("" means all cards)
func (m *Module) CreateQuiz(userID int64, subject string, questionCount int, questionType QuizType) ([]Question, error) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	var cards []models.Flashcard
	var err error
	if subject != "" {
		cards, err = m.cardRepo.GetBySubject(subject)
	} else {
		cards, err = m.cardRepo.GetAll()
	}
	if err != nil {
		return nil, err
	}

	rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	if len(cards) > questionCount {
		cards = cards[:questionCount]
	}

	questions := make([]Question, 0, len(cards))
	for _, card := range cards {
		question := Question{
			Card:         card,
			QuestionType: questionType,
		}

		if questionType == MultipleChoice {
			incorrect, err := m.incorrectOptions(card, cards, 3, rnd)
			if err != nil {
				return nil, err
			}

			allOptions := append(incorrect, card.Answer)
			correctIndex := len(allOptions) - 1

			rnd.Shuffle(len(allOptions), func(i, j int) {
				if i == correctIndex {
					correctIndex = j
				} else if j == correctIndex {
					correctIndex = i
				}
				allOptions[i], allOptions[j] = allOptions[j], allOptions[i]
			})

			question.Options = allOptions
			question.CorrectIndex = correctIndex
		}

		questions = append(questions, question)
	}

	return questions, nil
}

// SaveResult records the results of a finished quiz
func (m *Module) SaveResult(userID int64, quizType QuizType, questions []Question, correct int, durationSec int) error {
	subject := ""
	if len(questions) > 0 {
		subject = questions[0].Card.Subject
		for _, q := range questions[1:] {
			if q.Card.Subject != subject {
				subject = "" // mixed-subject quiz
				break
			}
		}
	}

	result := &models.QuizResult{
		UserID:       userID,
		QuizType:     string(quizType),
		TotalCards:   len(questions),
		CorrectCards: correct,
		Subject:      subject,
		DurationSec:  durationSec,
		TakenAt:      time.Now(),
	}
	return m.resultRepo.Create(result)
}

// incorrectOptions picks count wrong answers, preferring cards from the
// same subject so the distractors are plausible.
func (m *Module) incorrectOptions(card models.Flashcard, pool []models.Flashcard, count int, rnd *rand.Rand) ([]string, error) {
	options := make([]string, 0, count)

	sameSubject, err := m.cardRepo.GetBySubject(card.Subject)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Flashcard, 0, len(sameSubject))
	for _, c := range sameSubject {
		if c.ID != card.ID {
			candidates = append(candidates, c)
		}
	}
	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for i := 0; i < len(candidates) && len(options) < count; i++ {
		options = append(options, candidates[i].Answer)
	}

	if len(options) < count {
		shuffled := make([]models.Flashcard, len(pool))
		copy(shuffled, pool)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for i := 0; i < len(shuffled) && len(options) < count; i++ {
			c := shuffled[i]
			if c.ID != card.ID && c.Subject != card.Subject {
				options = append(options, c.Answer)
			}
		}
	}

	return options, nil
}
