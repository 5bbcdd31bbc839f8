package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/srsengine/internal/adaptive"
	"github.com/example/srsengine/internal/bot"
	"github.com/example/srsengine/internal/database"
	"github.com/example/srsengine/internal/excel"
	"github.com/example/srsengine/internal/hrm"
	"github.com/example/srsengine/internal/review"
)

func main() {
	importFile := flag.String("import", "", "import flashcards from an Excel or CSV file and exit")
	flag.Parse()

	// .env is optional; real deployments set variables directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *importFile != "" {
		runImport(*importFile)
		return
	}

	var analyzer adaptive.Analyzer
	client, err := hrm.NewFromEnv()
	if err != nil {
		log.Printf("Reasoning analysis service not configured, using local scheduling only: %v", err)
	} else {
		analyzer = client
	}

	engine := adaptive.NewEngine(analyzer)
	reviews := review.NewService(engine)

	b, err := bot.New(reviews)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		b.Stop()
		database.Close()
		os.Exit(0)
	}()

	log.Println("Starting review bot. Press Ctrl+C to stop.")
	if err := b.Start(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}

// runImport loads flashcards from a spreadsheet and prints a summary
func runImport(path string) {
	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportFlashcards(config)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import finished: %d processed, %d created, %d updated, %d skipped",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	for _, e := range result.Errors {
		log.Printf("  %s", e)
	}
}
