package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Default number of cards per study session
	DefaultSessionSize int
	// Maximum number of cards per study session
	MaxSessionSize int
	// An unanswered card older than this is discarded from the session
	SessionTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultSessionSize: 10,
		MaxSessionSize:     20,
		SessionTimeout:     time.Minute * 30,
	}
}
