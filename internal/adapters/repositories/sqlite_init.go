package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"streetview-pano-service/internal/domain"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	createCasesQuery := `
	CREATE TABLE IF NOT EXISTS cases (
		case_id TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lng REAL NOT NULL
	);
	`

	createResultsQuery := `
	CREATE TABLE IF NOT EXISTS pano_results (
        case_id TEXT PRIMARY KEY,
        result TEXT NOT NULL
    );
	`

	return execSchema(ctx, db, createCasesQuery, createResultsQuery)
}

func execSchema(ctx context.Context, db *sql.DB, statements ...string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type CaseSeed struct {
	CaseID string  `json:"case_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Read and validate case seeds from a JSON file.
func LoadSeeds(jsonPath string) ([]CaseSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed cases: read %q: %w", jsonPath, err)
	}

	var data []CaseSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed cases: parse json: %w", err)
	}

	rows := make([]CaseSeed, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.CaseID)
		if id == "" {
			return nil, fmt.Errorf("seed cases: item at index %d: case_id cannot be empty", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("seed cases: duplicate case_id %q at index %d", id, i+1)
		}
		seen[id] = struct{}{}

		loc := domain.Coordinate{Lat: item.Lat, Lng: item.Lng}
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("seed cases: case_id=%q: %w", id, err)
		}
		rows = append(rows, CaseSeed{CaseID: id, Lat: loc.Lat, Lng: loc.Lng})
	}

	return rows, nil
}

// Populate the SQLite database with case data from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	rows, err := LoadSeeds(jsonPath)
	if err != nil {
		return err
	}

	query := `
	INSERT OR REPLACE INTO cases (
		case_id,
		lat,
		lng
	)
	VALUES (?, ?, ?);
	`
	return insertSeeds(ctx, db, query, rows)
}

func insertSeeds(ctx context.Context, db *sql.DB, query string, rows []CaseSeed) error {
	if db == nil {
		return errors.New("seed cases: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed cases: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed cases: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range rows {
		if _, err := stmt.ExecContext(ctx, c.CaseID, c.Lat, c.Lng); err != nil {
			return fmt.Errorf("seed cases: insert case_id=%q: %w", c.CaseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed cases: commit tx: %w", err)
	}

	return nil
}
