package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"strings"

	"go.uber.org/zap"
)

// SQLite backed cache of finished panorama lookups, keyed by case id.
type SqliteResultCache struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewSqliteResultCache(db *sql.DB, log *zap.Logger) *SqliteResultCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &SqliteResultCache{DB: db, log: log}
}

// Fetch cached results for the given case ids.
func (s *SqliteResultCache) GetMany(
	ctx context.Context,
	caseIDs []string,
) (_ map[string]*domain.PanoResult, err error) {
	defer obs.Time(ctx, s.log, "result.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("result cache: db is nil")
	}

	uniq := uniqueKeys(caseIDs)
	if len(uniq) == 0 {
		return map[string]*domain.PanoResult{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, id := range uniq {
		ph[i] = "?"
		args[i] = id
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        case_id,
        result
    FROM pano_results
    WHERE case_id IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get result cache: query pano_results table: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, len(uniq))
}

// Store results keyed by case id, replacing older entries.
func (s *SqliteResultCache) PutMany(ctx context.Context, results map[string]*domain.PanoResult) (err error) {
	defer obs.Time(ctx, s.log, "result.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("result cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert result cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO pano_results (
        case_id,
        result
    )
    VALUES (?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert result cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for id, r := range results {
		payload, err := encodeResult(id, r)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, id, payload); err != nil {
			return fmt.Errorf("insert result cache case_id=%q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert result cache commit: %w", err)
	}

	return nil
}
