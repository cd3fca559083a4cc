package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/malishaedu/admissions-api/config"
	"github.com/malishaedu/admissions-api/database"
	"github.com/malishaedu/admissions-api/schema"
	"github.com/malishaedu/admissions-api/services"
)

// Ingests one extraction payload from a JSON file and prints the result.
//
//	go run ./cmd/testingest payload.json
//
// Exits non-zero when the run rolled back, so it can gate CI checks on
// sample payloads.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <payload.json>\n", os.Args[0])
		os.Exit(2)
	}

	if err := config.LoadENV(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read payload: %v", err)
	}

	var data schema.ExtractedData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatalf("Failed to parse payload: %v", err)
	}
	if err := data.Validate(); err != nil {
		log.Fatalf("Payload failed validation: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	service := services.NewDataIngestionService(store.DB())
	result := service.IngestExtractedData(context.Background(), &data)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}
