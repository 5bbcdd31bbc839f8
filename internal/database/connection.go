package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// ErrStorageConflict is returned when an optimistic-concurrency update loses
// the race: the row's version changed between read and write. Callers should
// re-read the state and retry the review.
var ErrStorageConflict = errors.New("storage conflict: state was modified concurrently")

// Connect establishes a connection to the database. DB_TYPE selects the
// backend: "postgres" uses DATABASE_URL, anything else uses a SQLite file at
// DATABASE_PATH (default data/srsengine.db).
func Connect() error {
	if os.Getenv("DB_TYPE") == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join("data", "srsengine.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// schemaTable is one table's DDL in both supported dialects. The dialects
// differ in their autoincrement spelling (AUTOINCREMENT vs BIGSERIAL) and
// float/integer type names, so each table carries its own statement pair.
type schemaTable struct {
	name     string
	sqlite   string
	postgres string
}

func schemaTables() []schemaTable {
	return []schemaTable{
		{
			name: "users",
			sqlite: `
				CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					telegram_id INTEGER UNIQUE NOT NULL,
					username TEXT,
					first_name TEXT,
					cards_per_day INTEGER DEFAULT 10,
					notification_hour INTEGER DEFAULT 9,
					notification_enabled BOOLEAN DEFAULT true,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`,
			postgres: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					telegram_id BIGINT UNIQUE NOT NULL,
					username TEXT,
					first_name TEXT,
					cards_per_day INTEGER DEFAULT 10,
					notification_hour INTEGER DEFAULT 9,
					notification_enabled BOOLEAN DEFAULT true,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`,
		},
		{
			name: "flashcards",
			sqlite: `
				CREATE TABLE IF NOT EXISTS flashcards (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					subject TEXT NOT NULL,
					topic TEXT,
					question TEXT NOT NULL,
					answer TEXT NOT NULL,
					difficulty REAL DEFAULT 0.5,
					tags TEXT,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(subject, question)
				)
			`,
			postgres: `
				CREATE TABLE IF NOT EXISTS flashcards (
					id BIGSERIAL PRIMARY KEY,
					subject TEXT NOT NULL,
					topic TEXT,
					question TEXT NOT NULL,
					answer TEXT NOT NULL,
					difficulty DOUBLE PRECISION DEFAULT 0.5,
					tags TEXT,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(subject, question)
				)
			`,
		},
		{
			name: "card_states",
			sqlite: `
				CREATE TABLE IF NOT EXISTS card_states (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					card_id INTEGER NOT NULL,
					ease_factor REAL DEFAULT 2.5,
					interval_days INTEGER DEFAULT 1,
					repetitions INTEGER DEFAULT 0,
					next_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					last_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					quality_history TEXT DEFAULT '[]',
					total_reviews INTEGER DEFAULT 0,
					success_rate REAL DEFAULT 0,
					average_response_time_ms REAL DEFAULT 0,
					difficulty_trend TEXT DEFAULT 'stable',
					reasoning_depth_history TEXT DEFAULT '[]',
					pattern_recognition_history TEXT DEFAULT '[]',
					cognitive_load_history TEXT DEFAULT '[]',
					adaptive_difficulty_level REAL DEFAULT 0.5,
					hrm_confidence_score REAL DEFAULT 0,
					personalized_interval_multiplier REAL DEFAULT 1.0,
					version INTEGER DEFAULT 1,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id),
					FOREIGN KEY (card_id) REFERENCES flashcards(id),
					UNIQUE(user_id, card_id)
				)
			`,
			postgres: `
				CREATE TABLE IF NOT EXISTS card_states (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					card_id BIGINT NOT NULL REFERENCES flashcards(id),
					ease_factor DOUBLE PRECISION DEFAULT 2.5,
					interval_days INTEGER DEFAULT 1,
					repetitions INTEGER DEFAULT 0,
					next_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					last_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					quality_history TEXT DEFAULT '[]',
					total_reviews INTEGER DEFAULT 0,
					success_rate DOUBLE PRECISION DEFAULT 0,
					average_response_time_ms DOUBLE PRECISION DEFAULT 0,
					difficulty_trend TEXT DEFAULT 'stable',
					reasoning_depth_history TEXT DEFAULT '[]',
					pattern_recognition_history TEXT DEFAULT '[]',
					cognitive_load_history TEXT DEFAULT '[]',
					adaptive_difficulty_level DOUBLE PRECISION DEFAULT 0.5,
					hrm_confidence_score DOUBLE PRECISION DEFAULT 0,
					personalized_interval_multiplier DOUBLE PRECISION DEFAULT 1.0,
					version BIGINT DEFAULT 1,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, card_id)
				)
			`,
		},
		{
			name: "review_log",
			sqlite: `
				CREATE TABLE IF NOT EXISTS review_log (
					id TEXT PRIMARY KEY,
					user_id INTEGER NOT NULL,
					card_id INTEGER NOT NULL,
					quality INTEGER NOT NULL,
					response_time_ms INTEGER DEFAULT 0,
					interval_days INTEGER NOT NULL,
					ease_factor REAL NOT NULL,
					used_fallback BOOLEAN DEFAULT false,
					reviewed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id),
					FOREIGN KEY (card_id) REFERENCES flashcards(id)
				)
			`,
			postgres: `
				CREATE TABLE IF NOT EXISTS review_log (
					id TEXT PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					card_id BIGINT NOT NULL REFERENCES flashcards(id),
					quality INTEGER NOT NULL,
					response_time_ms BIGINT DEFAULT 0,
					interval_days INTEGER NOT NULL,
					ease_factor DOUBLE PRECISION NOT NULL,
					used_fallback BOOLEAN DEFAULT false,
					reviewed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`,
		},
		{
			name: "quiz_results",
			sqlite: `
				CREATE TABLE IF NOT EXISTS quiz_results (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					quiz_type TEXT NOT NULL,
					total_cards INTEGER NOT NULL,
					correct_cards INTEGER NOT NULL,
					subject TEXT,
					duration_sec INTEGER DEFAULT 0,
					taken_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)
			`,
			postgres: `
				CREATE TABLE IF NOT EXISTS quiz_results (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					quiz_type TEXT NOT NULL,
					total_cards INTEGER NOT NULL,
					correct_cards INTEGER NOT NULL,
					subject TEXT,
					duration_sec INTEGER DEFAULT 0,
					taken_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`,
		},
	}
}

// initializeSchema creates necessary tables if they don't exist, using the
// DDL dialect of the connected driver.
func initializeSchema() error {
	postgres := DB.DriverName() == "postgres"

	for _, table := range schemaTables() {
		ddl := table.sqlite
		if postgres {
			ddl = table.postgres
		}
		if _, err := DB.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %v", table.name, err)
		}
	}
	return nil
}
