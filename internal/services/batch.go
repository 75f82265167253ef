package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BatchOptions struct {
	// Maximum number of concurrent lookup sessions; values below 1 mean 1.
	Workers int
	// Picks additional captures per case; nil selects none.
	Selector CaptureSelector
	// Receives every session's outcome. Must be safe for concurrent use.
	Sink ports.RenderSink
	// Optional. Cases with a cached result are skipped and new results are stored.
	Cache ports.ResultCache
}

// Outcome of one case in a batch run.
type CaseOutcome struct {
	CaseID   string
	Result   *domain.PanoResult
	Selected []domain.Capture
	Err      error
}

type BatchReport struct {
	Total    int
	Skipped  int
	Found    int
	Failed   int
	Outcomes []CaseOutcome
}

// RunBatch runs one lookup session per case over a bounded worker pool.
//
// Per-case failures are recorded in the report and never stop the batch;
// only context cancellation (or a failing cache read) aborts it.
// Outcomes are ordered by case id.
func RunBatch(
	ctx context.Context,
	finder *PanoramaFinder,
	cases []*domain.Case,
	opts BatchOptions,
	log *zap.Logger,
) (*BatchReport, error) {
	if finder == nil {
		return nil, errors.New("run batch: finder must be non-nil")
	}
	if opts.Sink == nil {
		return nil, errors.New("run batch: sink must be non-nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	report := &BatchReport{Total: len(cases)}

	pending, err := pendingCases(ctx, cases, opts.Cache)
	if err != nil {
		return nil, fmt.Errorf("run batch: %w", err)
	}
	report.Skipped = len(cases) - len(pending)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, c := range pending {
		c := c
		g.Go(func() error {
			outcome := runCase(gctx, finder, c, opts, log)
			if outcome.Err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			report.Outcomes = append(report.Outcomes, outcome)
			if outcome.Err != nil {
				report.Failed++
			} else {
				report.Found++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("run batch: %w", err)
	}

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].CaseID < report.Outcomes[j].CaseID
	})

	log.Info("batch complete",
		zap.Int("total", report.Total),
		zap.Int("skipped", report.Skipped),
		zap.Int("found", report.Found),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// pendingCases drops duplicate ids and cases that already have a cached result.
func pendingCases(ctx context.Context, cases []*domain.Case, cache ports.ResultCache) ([]*domain.Case, error) {
	seen := make(map[string]struct{}, len(cases))
	uniq := make([]*domain.Case, 0, len(cases))
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		if c == nil {
			continue
		}
		if _, ok := seen[c.CaseID]; ok {
			continue
		}
		seen[c.CaseID] = struct{}{}
		uniq = append(uniq, c)
		ids = append(ids, c.CaseID)
	}

	if cache == nil || len(ids) == 0 {
		return uniq, nil
	}

	done, err := cache.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("read result cache: %w", err)
	}

	out := make([]*domain.Case, 0, len(uniq))
	for _, c := range uniq {
		if _, ok := done[c.CaseID]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func runCase(
	ctx context.Context,
	finder *PanoramaFinder,
	c *domain.Case,
	opts BatchOptions,
	log *zap.Logger,
) CaseOutcome {
	session := domain.Session{CaseID: c.CaseID, Origin: c.Location}

	result, err := finder.Find(ctx, session, opts.Sink)
	if err != nil {
		return CaseOutcome{CaseID: c.CaseID, Err: err}
	}

	selected := []domain.Capture{}
	if opts.Selector != nil {
		picked := map[string]struct{}{result.PanoID: {}}
		selected = opts.Selector(result.OtherCaptures, picked)
	}

	if opts.Cache != nil {
		if err := opts.Cache.PutMany(ctx, map[string]*domain.PanoResult{c.CaseID: result}); err != nil {
			log.Warn("result cache write failed", zap.String("case_id", c.CaseID), zap.Error(err))
		}
	}

	return CaseOutcome{CaseID: c.CaseID, Result: result, Selected: selected}
}
