// Command migrate applies one-off SQL patch scripts against the shared
// Logitrack database. Regular schema migrations run automatically at server
// start; this tool is for data repairs that should only ever run by hand.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"logitrack-backend/internal/database"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing .sql patch scripts")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("❌ DATABASE_URL environment variable is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("❌ Failed to read migrations directory: %v", err)
	}

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		scripts = append(scripts, entry.Name())
	}
	sort.Strings(scripts)

	if len(scripts) == 0 {
		log.Println("No patch scripts found, nothing to do")
		return
	}

	for _, name := range scripts {
		path := filepath.Join(*dir, name)
		sqlBytes, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("❌ Failed to read %s: %v", name, err)
		}

		log.Printf("▶️ Applying %s...", name)
		tx, err := db.Begin()
		if err != nil {
			log.Fatalf("❌ Failed to begin transaction: %v", err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			log.Fatalf("❌ %s failed: %v", name, err)
		}
		if err := tx.Commit(); err != nil {
			log.Fatalf("❌ Failed to commit %s: %v", name, err)
		}
		log.Printf("✅ Applied %s", name)
	}

	log.Printf("✅ Applied %d patch script(s)", len(scripts))
}
