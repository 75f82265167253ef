package repositories

import (
	"context"
	"database/sql"
	"errors"
	"streetview-pano-service/internal/domain"
)

// Postgres-backed implementation of the CaseRepository port.
type SQLCaseRepository struct{ DB *sql.DB }

func NewSQLCaseRepository(db *sql.DB) *SQLCaseRepository {
	return &SQLCaseRepository{DB: db}
}

func (s *SQLCaseRepository) ListCases(ctx context.Context) ([]*domain.Case, error) {
	if s.DB == nil {
		return nil, errors.New("sql case repository: DB is nil")
	}
	return listCases(ctx, s.DB)
}

func (s *SQLCaseRepository) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	if s.DB == nil {
		return nil, errors.New("sql case repository: DB is nil")
	}

	query := `
	SELECT case_id, lat, lng
	FROM cases
	WHERE case_id = $1;
	`
	return getCase(ctx, s.DB, query, caseID)
}
