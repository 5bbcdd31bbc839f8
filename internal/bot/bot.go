package bot

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/srsengine/internal/database"
	"github.com/example/srsengine/internal/quiz"
	"github.com/example/srsengine/internal/review"
	"github.com/example/srsengine/internal/scheduler"
	"github.com/example/srsengine/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// reviewSession tracks one user's in-progress study session. ShownAt is
// when the current question was displayed; the elapsed time until grading
// becomes the review's response time.
type reviewSession struct {
	Queue     []review.DueCard
	Current   int
	ShownAt   time.Time
	Revealed  bool
	StartedAt time.Time
	Graded    int
	Correct   int
}

// quizSession tracks one user's in-progress quiz.
type quizSession struct {
	Questions []quiz.Question
	Current   int
	Correct   int
	StartedAt time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api              *tgbotapi.BotAPI
	token            string
	reviews          *review.Service
	users            *database.UserRepository
	quiz             *quiz.Module
	schedulerEnabled bool
	scheduler        *scheduler.Scheduler
	sessions         map[int64]*reviewSession
	quizzes          map[int64]*quizSession
	config           *BotConfig
}

// New creates a new bot instance
func New(reviews *review.Service) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	schedulerEnabled := os.Getenv("ENABLE_SCHEDULER") != "false"

	return &Bot{
		token:            token,
		reviews:          reviews,
		users:            database.NewUserRepository(),
		quiz:             quiz.NewModule(),
		schedulerEnabled: schedulerEnabled,
		sessions:         make(map[int64]*reviewSession),
		quizzes:          make(map[int64]*quizSession),
		config:           DefaultConfig(),
	}, nil
}

// Start initializes and starts the bot
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b)
		b.scheduler.Start()
		log.Println("Reminder scheduler started")
	}

	for update := range updates {
		b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(userID int64, dueCount int) error {
	user, err := b.users.GetByID(userID)
	if err != nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return err
	}

	cardWord := "cards"
	if dueCount == 1 {
		cardWord = "card"
	}

	msg := tgbotapi.NewMessage(user.TelegramID,
		fmt.Sprintf("You have %d %s due for review. Use /review to start a session.", dueCount, cardWord))
	_, err = b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
	}
	return err
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil && update.Message.IsCommand() {
		b.handleCommand(update.Message)
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}
	if update.Message != nil {
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Use /menu to see what I can do.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
	}
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Main Menu - choose an option:")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Start Review", CallbackData: "start_review"},
			{Text: "📊 Statistics", CallbackData: "show_stats"},
		},
		{
			{Text: "📅 Upcoming", CallbackData: "show_upcoming"},
			{Text: "📝 Quiz", CallbackData: "start_quiz"},
		},
		{
			{Text: "⚙️ Settings", CallbackData: "settings"},
		},
	}
}

// resolveUser registers the sender on first contact and returns the
// internal user record.
func (b *Bot) resolveUser(from *tgbotapi.User) (*models.User, error) {
	if from == nil {
		return nil, fmt.Errorf("message has no sender")
	}
	return b.users.GetOrCreateByTelegramID(from.ID, from.UserName, from.FirstName)
}
