package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"streetview-pano-service/internal/adapters/render"
	"streetview-pano-service/internal/app"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/services"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type outcomeLine struct {
	CaseID   string             `json:"case_id"`
	Result   *domain.PanoResult `json:"result,omitempty"`
	Selected []domain.Capture   `json:"selected,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// panobatch looks up the panorama of every case (or the ones named with
// -case), stores the results and prints one JSON line per case.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	workers := flag.Int("workers", config.GetInt("BATCH_WORKERS", 4), "concurrent lookup sessions")
	selector := flag.String("selector", config.Get("BATCH_SELECTOR", "winter"), "extra captures to pick: winter, earliest or none")
	only := flag.String("case", "", "comma-separated case ids (default: all cases)")
	flag.Parse()

	logger, err := obs.NewLogger(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *workers, *selector, *only); err != nil {
		logger.Error("batch failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, workers int, selector, only string) error {
	a, err := app.New(ctx, app.SettingsFromEnv(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cases, err := a.Cases.ListCases(ctx)
	if err != nil {
		return err
	}
	cases = filterCases(cases, only)

	report, err := services.RunBatch(ctx, a.Finder, cases, services.BatchOptions{
		Workers:  workers,
		Selector: services.SelectorByName(selector),
		Sink:     render.NewLogSink(logger),
		Cache:    a.Results,
	}, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, o := range report.Outcomes {
		line := outcomeLine{CaseID: o.CaseID, Result: o.Result, Selected: o.Selected}
		if o.Err != nil {
			line.Error = o.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

func filterCases(cases []*domain.Case, only string) []*domain.Case {
	if strings.TrimSpace(only) == "" {
		return cases
	}

	want := map[string]struct{}{}
	for _, id := range strings.Split(only, ",") {
		if id = strings.TrimSpace(id); id != "" {
			want[id] = struct{}{}
		}
	}

	out := make([]*domain.Case, 0, len(want))
	for _, c := range cases {
		if _, ok := want[c.CaseID]; ok {
			out = append(out, c)
		}
	}
	return out
}
