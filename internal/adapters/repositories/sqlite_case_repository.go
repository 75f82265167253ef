package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
)

// SQLite-backed implementation of the CaseRepository port.
type SqliteCaseRepository struct{ DB *sql.DB }

func NewSqliteCaseRepository(db *sql.DB) *SqliteCaseRepository {
	return &SqliteCaseRepository{DB: db}
}

// Return all cases stored in the database.
func (s *SqliteCaseRepository) ListCases(ctx context.Context) ([]*domain.Case, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite case repository: DB is nil")
	}
	return listCases(ctx, s.DB)
}

// Return the case with the given id, or ports.ErrNotFound.
func (s *SqliteCaseRepository) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite case repository: DB is nil")
	}

	query := `
	SELECT
		case_id,
		lat,
		lng
	FROM cases
	WHERE case_id = ?;
	`
	return getCase(ctx, s.DB, query, caseID)
}

// Shorter ids sort first so numeric ids keep their natural order ("9" before "10").
const listCasesQuery = `
	SELECT
		case_id,
		lat,
		lng
	FROM cases
	ORDER BY length(case_id), case_id;
	`

func listCases(ctx context.Context, db *sql.DB) ([]*domain.Case, error) {
	rows, err := db.QueryContext(ctx, listCasesQuery)
	if err != nil {
		return nil, fmt.Errorf("list cases: query cases table: %w", err)
	}
	defer rows.Close()

	cases := make([]*domain.Case, 0, 64)
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(&c.CaseID, &c.Location.Lat, &c.Location.Lng); err != nil {
			return nil, fmt.Errorf("list cases: scan row: %w", err)
		}
		cases = append(cases, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cases: row iteration: %w", err)
	}

	return cases, nil
}

func getCase(ctx context.Context, db *sql.DB, query, caseID string) (*domain.Case, error) {
	var c domain.Case
	err := db.QueryRowContext(ctx, query, caseID).Scan(&c.CaseID, &c.Location.Lat, &c.Location.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get case %q: %w", caseID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case %q: %w", caseID, err)
	}
	return &c, nil
}
