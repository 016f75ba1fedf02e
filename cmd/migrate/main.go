package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/sky366trade/backend/internal/config"
)

// Applies a raw SQL migration file passed as the first argument. AutoMigrate
// covers schema creation; this runner exists for one-off column changes.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <file.sql>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	sqlBytes, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	log.Printf("Applying migration: %s", os.Args[1])
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		log.Fatalf("Failed to apply migration: %v", err)
	}

	log.Println("Migration applied successfully")
}
