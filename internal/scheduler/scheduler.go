package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/srsengine/internal/database"
	"github.com/go-co-op/gocron"
)

// Default window during which reminders may be sent
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(userID int64, dueCount int) error
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Check hourly which users should be nudged about due cards
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders finds users whose notification hour is now and who
// have cards waiting, and pings them through the notifier.
func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().Hour()

	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}

	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	userRepo := database.NewUserRepository()
	stateRepo := database.NewCardStateRepository()

	users, err := userRepo.GetUsersForNotification(currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	now := time.Now()
	for _, user := range users {
		due, err := stateRepo.DueForUser(user.ID, now)
		if err != nil {
			log.Printf("Error getting due cards for user %d: %v", user.ID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		// Cap the advertised count at the user's daily preference
		count := len(due)
		if user.CardsPerDay > 0 && count > user.CardsPerDay {
			count = user.CardsPerDay
		}

		if err := s.notifier.SendReminder(user.ID, count); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
		}
	}
}

// RunManualCheck forces a reminder check for a specific user
func (s *Scheduler) RunManualCheck(userID int64) error {
	stateRepo := database.NewCardStateRepository()

	due, err := stateRepo.DueForUser(userID, time.Now())
	if err != nil {
		return err
	}
	if len(due) > 0 {
		return s.notifier.SendReminder(userID, len(due))
	}
	return nil
}
