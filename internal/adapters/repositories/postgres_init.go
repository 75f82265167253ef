package repositories

import (
	"context"
	"database/sql"
)

// Initialize the Postgres database schema.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	createCasesQuery := `
	CREATE TABLE IF NOT EXISTS cases (
		case_id TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL
	);
	`

	createResultsQuery := `
	CREATE TABLE IF NOT EXISTS pano_results (
        case_id TEXT PRIMARY KEY,
        result TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`

	return execSchema(ctx, db, createCasesQuery, createResultsQuery)
}

// Populate the Postgres database with case data from a JSON file.
func SeedPostgresFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	rows, err := LoadSeeds(jsonPath)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO cases (case_id, lat, lng)
	VALUES ($1, $2, $3)
	ON CONFLICT (case_id) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng;
	`
	return insertSeeds(ctx, db, query, rows)
}
