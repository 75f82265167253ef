package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"strings"

	"go.uber.org/zap"
)

// SQLResultCache is a Postgres-backed cache of finished panorama lookups,
// keyed by case id.
type SQLResultCache struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewSQLResultCache(db *sql.DB, log *zap.Logger) *SQLResultCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLResultCache{DB: db, log: log}
}

// Fetch cached results for the given case ids.
func (s *SQLResultCache) GetMany(
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

	q := `
	SELECT case_id, result
    FROM pano_results
    WHERE case_id = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get result cache: query pano_results table: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, len(uniq))
}

// Store results keyed by case id, replacing older entries.
func (s *SQLResultCache) PutMany(ctx context.Context, results map[string]*domain.PanoResult) (err error) {
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
	INSERT INTO pano_results (case_id, result)
    VALUES ($1, $2)
	ON CONFLICT (case_id) DO UPDATE
	SET result = EXCLUDED.result,
		updated_at = now();
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

// Trim, drop empty keys and de-duplicate while keeping order.
func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}

func encodeResult(caseID string, r *domain.PanoResult) (string, error) {
	if strings.TrimSpace(caseID) == "" {
		return "", errors.New("insert result cache: empty case id key")
	}
	if r == nil {
		return "", fmt.Errorf("insert result cache case_id=%q: nil result", caseID)
	}

	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("insert result cache case_id=%q: encode: %w", caseID, err)
	}
	return string(b), nil
}

func scanResults(rows *sql.Rows, sizeHint int) (map[string]*domain.PanoResult, error) {
	out := make(map[string]*domain.PanoResult, sizeHint)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("get result cache: scan rows: %w", err)
		}

		var r domain.PanoResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("get result cache: decode case_id=%q: %w", id, err)
		}
		out[id] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get result cache: row iteration: %w", err)
	}

	return out, nil
}
