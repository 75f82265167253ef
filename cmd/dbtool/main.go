package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"streetview-pano-service/internal/adapters/repositories"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
)

// dbtool initializes the Postgres schema and seeds the cases table.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/cases.json"), "JSON file of cases to seed")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := initAndSeed(context.Background(), db, *seedPath, *schemaOnly); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, db *sql.DB, seedPath string, schemaOnly bool) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitPostgresSchema(ctx, db); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if schemaOnly {
		return nil
	}

	log.Println("Seeding database...")
	if err := repositories.SeedPostgresFromJSON(ctx, db, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
