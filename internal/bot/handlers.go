package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/srsengine/internal/quiz"
	"github.com/example/srsengine/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleCommand routes bot commands
func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "menu":
		b.showMainMenu(message.Chat.ID)
	case "review", "due":
		user, err := b.resolveUser(message.From)
		if err != nil {
			log.Printf("Error resolving user: %v", err)
			return
		}
		b.startReviewSession(message.Chat.ID, user)
	case "stats":
		user, err := b.resolveUser(message.From)
		if err != nil {
			log.Printf("Error resolving user: %v", err)
			return
		}
		b.showStats(message.Chat.ID, user)
	case "upcoming":
		user, err := b.resolveUser(message.From)
		if err != nil {
			log.Printf("Error resolving user: %v", err)
			return
		}
		b.showUpcoming(message.Chat.ID, user)
	case "quiz":
		user, err := b.resolveUser(message.From)
		if err != nil {
			log.Printf("Error resolving user: %v", err)
			return
		}
		b.startQuiz(message.Chat.ID, user)
	case "settings":
		b.showSettings(message.Chat.ID)
	default:
		msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /menu to show the main menu.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
	}
}

// handleStart handles the /start command
func (b *Bot) handleStart(message *tgbotapi.Message) {
	user, err := b.resolveUser(message.From)
	if err != nil {
		log.Printf("Error resolving user: %v", err)
		return
	}

	welcomeText := fmt.Sprintf(`Welcome, %s! 🎓

I schedule your flashcard reviews so each card comes back right before you would forget it.

Available commands:
/review - Start a review session
/quiz - Take a quick self-check quiz
/stats - Show your statistics
/upcoming - Review forecast for the week
/settings - Configure reminders`, user.FirstName)

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// startReviewSession loads the user's due queue and shows the first card
func (b *Bot) startReviewSession(chatID int64, user *models.User) {
	due, err := b.reviews.DueCards(context.Background(), user.ID)
	if err != nil {
		log.Printf("Error getting due cards for user %d: %v", user.ID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Could not load your cards. Please try again."))
		return
	}

	if len(due) == 0 {
		msg := tgbotapi.NewMessage(chatID, "🎉 Nothing is due right now. Check /upcoming to see what's next.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}

	limit := b.config.DefaultSessionSize
	if user.CardsPerDay > 0 {
		limit = user.CardsPerDay
	}
	if limit > b.config.MaxSessionSize {
		limit = b.config.MaxSessionSize
	}
	if len(due) > limit {
		due = due[:limit]
	}

	b.sessions[user.ID] = &reviewSession{
		Queue:     due,
		StartedAt: time.Now(),
	}

	b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Starting a session with %d cards. Good luck!", len(due))))
	b.showCurrentCard(chatID, user.ID)
}

// showCurrentCard presents the current card's question
func (b *Bot) showCurrentCard(chatID, userID int64) {
	session, exists := b.sessions[userID]
	if !exists {
		return
	}
	if session.Current >= len(session.Queue) {
		b.finishSession(chatID, userID)
		return
	}

	item := session.Queue[session.Current]
	session.ShownAt = time.Now()
	session.Revealed = false

	var text strings.Builder
	text.WriteString(fmt.Sprintf("*Card %d of %d*", session.Current+1, len(session.Queue)))
	if item.PriorityReason != "" {
		text.WriteString(fmt.Sprintf(" _(%s)_", item.PriorityReason))
	}
	text.WriteString("\n\n")
	if item.Card.Topic != "" {
		text.WriteString(fmt.Sprintf("%s / %s\n\n", item.Card.Subject, item.Card.Topic))
	} else {
		text.WriteString(fmt.Sprintf("%s\n\n", item.Card.Subject))
	}
	text.WriteString(fmt.Sprintf("❓ %s", item.Card.Question))

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💡 Show Answer", "reveal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹ End Session", "end_session"),
		),
	)
	b.api.Send(msg)
}

// revealAnswer shows the answer and the grading keyboard
func (b *Bot) revealAnswer(chatID, userID int64) {
	session, exists := b.sessions[userID]
	if !exists || session.Current >= len(session.Queue) {
		return
	}
	session.Revealed = true

	item := session.Queue[session.Current]

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ %s\n\nHow well did you recall it?", item.Card.Answer))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("0", "grade_0"),
			tgbotapi.NewInlineKeyboardButtonData("1", "grade_1"),
			tgbotapi.NewInlineKeyboardButtonData("2", "grade_2"),
			tgbotapi.NewInlineKeyboardButtonData("3", "grade_3"),
			tgbotapi.NewInlineKeyboardButtonData("4", "grade_4"),
			tgbotapi.NewInlineKeyboardButtonData("5", "grade_5"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("0-2 forgot · 3-5 recalled", "noop"),
		),
	)
	b.api.Send(msg)
}

// gradeCurrentCard records the grade and advances the session
func (b *Bot) gradeCurrentCard(chatID, userID int64, quality int) {
	session, exists := b.sessions[userID]
	if !exists || session.Current >= len(session.Queue) {
		return
	}
	if !session.Revealed {
		b.api.Send(tgbotapi.NewMessage(chatID, "Show the answer first, then grade yourself."))
		return
	}
	if time.Since(session.ShownAt) > b.config.SessionTimeout {
		delete(b.sessions, userID)
		b.api.Send(tgbotapi.NewMessage(chatID, "That session expired. Use /review to start a fresh one."))
		return
	}

	item := session.Queue[session.Current]
	responseTime := time.Since(session.ShownAt).Milliseconds()

	resp := models.ReviewResponse{
		Quality:        quality,
		ResponseTimeMs: responseTime,
		// Self-graded recall is the only confidence signal the chat
		// surface has.
		ConfidenceLevel: float64(quality) / 5.0,
	}
	rctx := models.ReviewContext{
		Subject:         item.Card.Subject,
		Topic:           item.Card.Topic,
		DifficultyLevel: item.Card.Difficulty,
		SessionID:       fmt.Sprintf("tg-%d-%d", userID, session.StartedAt.Unix()),
	}

	result, err := b.reviews.ReviewCard(context.Background(), userID, item.Card.ID, resp, rctx)
	if err != nil {
		log.Printf("Error reviewing card %d for user %d: %v", item.Card.ID, userID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Could not record that review. Please try again."))
		return
	}

	session.Graded++
	if quality >= 3 {
		session.Correct++
	}
	session.Current++

	b.api.Send(tgbotapi.NewMessage(chatID, formatReviewFeedback(result)))
	b.showCurrentCard(chatID, userID)
}

// formatReviewFeedback renders the scheduling outcome for one review
func formatReviewFeedback(result *models.AdaptiveResult) string {
	var text strings.Builder

	text.WriteString(result.Feedback.Message)
	text.WriteString("\n")

	days := result.State.IntervalDays
	if days == 1 {
		text.WriteString("Next review: tomorrow")
	} else {
		text.WriteString(fmt.Sprintf("Next review: in %d days", days))
	}

	if len(result.Recommendations.StudyFocusAreas) > 0 {
		text.WriteString("\nFocus on: " + strings.Join(result.Recommendations.StudyFocusAreas, ", "))
	}
	return text.String()
}

// finishSession summarizes and closes the session
func (b *Bot) finishSession(chatID, userID int64) {
	session, exists := b.sessions[userID]
	if !exists {
		return
	}
	delete(b.sessions, userID)

	if session.Graded == 0 {
		b.showMainMenu(chatID)
		return
	}

	duration := int(time.Since(session.StartedAt).Minutes())
	text := fmt.Sprintf("🏁 Session complete!\n\nCards reviewed: %d\nRecalled: %d of %d\nTime: %d min",
		session.Graded, session.Correct, session.Graded, duration)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// startQuiz builds a short multiple-choice quiz over the whole card bank
func (b *Bot) startQuiz(chatID int64, user *models.User) {
	questions, err := b.quiz.CreateQuiz(user.ID, "", 5, quiz.MultipleChoice)
	if err != nil {
		log.Printf("Error creating quiz for user %d: %v", user.ID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Could not build a quiz. Please try again."))
		return
	}
	if len(questions) == 0 {
		b.api.Send(tgbotapi.NewMessage(chatID, "No cards to quiz you on yet. Import some first!"))
		return
	}

	b.quizzes[user.ID] = &quizSession{
		Questions: questions,
		StartedAt: time.Now(),
	}
	b.showQuizQuestion(chatID, user.ID)
}

// showQuizQuestion presents the current quiz question with its options
func (b *Bot) showQuizQuestion(chatID, userID int64) {
	session, exists := b.quizzes[userID]
	if !exists {
		return
	}
	if session.Current >= len(session.Questions) {
		b.finishQuiz(chatID, userID)
		return
	}

	q := session.Questions[session.Current]

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option, fmt.Sprintf("quiz_opt_%d", i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏹ End Quiz", "end_quiz"),
	))

	text := fmt.Sprintf("*Question %d of %d*\n\n❓ %s",
		session.Current+1, len(session.Questions), q.Card.Question)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.api.Send(msg)
}

// answerQuizQuestion checks the picked option and advances the quiz
func (b *Bot) answerQuizQuestion(chatID, userID int64, optionIndex int) {
	session, exists := b.quizzes[userID]
	if !exists || session.Current >= len(session.Questions) {
		return
	}

	q := session.Questions[session.Current]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return
	}

	if optionIndex == q.CorrectIndex {
		session.Correct++
		b.api.Send(tgbotapi.NewMessage(chatID, "✅ Correct!"))
	} else {
		b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Not quite. The answer is: %s", q.Card.Answer)))
	}

	session.Current++
	b.showQuizQuestion(chatID, userID)
}

// finishQuiz records the result and shows the score
func (b *Bot) finishQuiz(chatID, userID int64) {
	session, exists := b.quizzes[userID]
	if !exists {
		return
	}
	delete(b.quizzes, userID)

	answered := session.Current
	if answered == 0 {
		b.showMainMenu(chatID)
		return
	}

	duration := int(time.Since(session.StartedAt).Seconds())
	if err := b.quiz.SaveResult(userID, quiz.MultipleChoice, session.Questions[:answered], session.Correct, duration); err != nil {
		log.Printf("Error saving quiz result for user %d: %v", userID, err)
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🏁 Quiz complete! You got %d of %d right.", session.Correct, answered))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// showStats renders the user's aggregate statistics
func (b *Bot) showStats(chatID int64, user *models.User) {
	stats, err := b.reviews.Statistics(context.Background(), user.ID)
	if err != nil {
		log.Printf("Error getting statistics for user %d: %v", user.ID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "Statistics are not available yet. Review some cards first!"))
		return
	}

	text := "📊 *Your statistics*\n\n" +
		fmt.Sprintf("Cards in rotation: %d\n", stats.TotalCards) +
		fmt.Sprintf("Total reviews: %d\n", stats.TotalReviews) +
		fmt.Sprintf("Success rate: %.0f%%\n", stats.AverageSuccess*100) +
		fmt.Sprintf("Average interval: %.1f days\n", stats.AverageInterval)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start Review", "start_review"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back to Menu", "main_menu"),
		),
	)
	b.api.Send(msg)
}

// showUpcoming renders the review forecast for the next week
func (b *Bot) showUpcoming(chatID int64, user *models.User) {
	days, err := b.reviews.Upcoming(context.Background(), user.ID, 7)
	if err != nil {
		log.Printf("Error getting upcoming reviews for user %d: %v", user.ID, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Could not load your forecast. Please try again."))
		return
	}

	if len(days) == 0 {
		msg := tgbotapi.NewMessage(chatID, "Nothing scheduled for the next 7 days. Time to add new cards!")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}

	var text strings.Builder
	text.WriteString("📅 *Upcoming reviews*\n\n")
	for _, day := range days {
		text.WriteString(fmt.Sprintf("%s: %d cards\n", day.Date.Format("Mon Jan 2"), day.Count))
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// showSettings shows the settings menu
func (b *Bot) showSettings(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "⚙️ Settings\n\nConfigure your reviews:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔢 Cards per session", "set_cards_per_day"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Reminder time", "notification_time"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back to Menu", "main_menu"),
		),
	)
	b.api.Send(msg)
}

// showCardsPerDaySettings shows the session size options
func (b *Bot) showCardsPerDaySettings(chatID int64, user *models.User) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, count := range []int{5, 10, 15, 20} {
		label := fmt.Sprintf("%d cards", count)
		if user.CardsPerDay == count {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("cards_per_day_%d", count)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back to Settings", "settings"),
	))

	msg := tgbotapi.NewMessage(chatID, "How many cards per session?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.api.Send(msg)
}

// showNotificationTimeSettings shows the reminder hour options
func (b *Bot) showNotificationTimeSettings(chatID int64, user *models.User) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, hour := range []int{9, 12, 15, 18, 21} {
		label := fmt.Sprintf("%d:00", hour)
		if user.NotificationHour == hour {
			label = "✓ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("set_notification_time_%d", hour)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back to Settings", "settings"),
	))

	msg := tgbotapi.NewMessage(chatID, "🕒 When should I remind you about due cards?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.api.Send(msg)
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	user, err := b.resolveUser(callback.From)
	if err != nil {
		log.Printf("Error resolving user: %v", err)
		return
	}

	// Acknowledge the press so the button stops spinning
	b.api.Request(tgbotapi.NewCallback(callback.ID, ""))

	switch callback.Data {
	case "main_menu":
		b.showMainMenu(chatID)
	case "start_review":
		b.startReviewSession(chatID, user)
	case "reveal":
		b.revealAnswer(chatID, user.ID)
	case "end_session":
		b.finishSession(chatID, user.ID)
	case "start_quiz":
		b.startQuiz(chatID, user)
	case "end_quiz":
		b.finishQuiz(chatID, user.ID)
	case "show_stats":
		b.showStats(chatID, user)
	case "show_upcoming":
		b.showUpcoming(chatID, user)
	case "settings":
		b.showSettings(chatID)
	case "set_cards_per_day":
		b.showCardsPerDaySettings(chatID, user)
	case "notification_time":
		b.showNotificationTimeSettings(chatID, user)
	case "noop":
	default:
		if strings.HasPrefix(callback.Data, "grade_") {
			quality, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "grade_"))
			if err != nil || quality < 0 || quality > 5 {
				log.Printf("Invalid grade callback: %s", callback.Data)
				return
			}
			b.gradeCurrentCard(chatID, user.ID, quality)
			return
		}
		if strings.HasPrefix(callback.Data, "quiz_opt_") {
			idx, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "quiz_opt_"))
			if err != nil {
				log.Printf("Invalid quiz option callback: %s", callback.Data)
				return
			}
			b.answerQuizQuestion(chatID, user.ID, idx)
			return
		}
		if strings.HasPrefix(callback.Data, "cards_per_day_") {
			count, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "cards_per_day_"))
			if err != nil {
				log.Printf("Invalid cards per day callback: %s", callback.Data)
				return
			}
			user.CardsPerDay = count
			if err := b.users.Update(user); err != nil {
				log.Printf("Error updating user %d: %v", user.ID, err)
				return
			}
			b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Session size set to %d cards", count)))
			b.showCardsPerDaySettings(chatID, user)
			return
		}
		if strings.HasPrefix(callback.Data, "set_notification_time_") {
			hour, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "set_notification_time_"))
			if err != nil || hour < 0 || hour > 23 {
				log.Printf("Invalid notification time callback: %s", callback.Data)
				return
			}
			user.NotificationHour = hour
			user.NotificationEnabled = true
			if err := b.users.Update(user); err != nil {
				log.Printf("Error updating user %d: %v", user.ID, err)
				return
			}
			b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Reminders set for %d:00", hour)))
			b.showNotificationTimeSettings(chatID, user)
			return
		}
	}
}
