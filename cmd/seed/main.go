package main

import (
	"log"

	"github.com/malishaedu/admissions-api/config"
	"github.com/malishaedu/admissions-api/database"
)

// Seeds the database with the partner universities. Run once against a fresh
// database, or any time: existing rows are never touched.
func main() {
	if err := config.LoadENV(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seeder := database.NewSeeder(store.DB())
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
