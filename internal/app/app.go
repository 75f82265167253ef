// Package app assembles the concrete adapters behind the ports. It is shared
// by the server and the batch runner.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"streetview-pano-service/internal/adapters/cache"
	"streetview-pano-service/internal/adapters/repositories"
	"streetview-pano-service/internal/adapters/storage"
	"streetview-pano-service/internal/adapters/streetview"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/platform/db"
	"streetview-pano-service/internal/ports"
	"streetview-pano-service/internal/services"

	"go.uber.org/zap"
)

type Settings struct {
	// Postgres is used when set; otherwise the SQLite file at DBPath.
	DatabaseURL string
	DBPath      string
	// Cases seeded into SQLite on startup. Postgres is seeded by dbtool.
	SeedPath string

	FinderConfig string

	MapsAPIKey string
	// Base URL of the metadata endpoint, for proxies and tests.
	StreetViewBaseURL string
	// When set, panoramas come from this fixture file instead of the network.
	FixturePath string

	ScreenshotDir string
	S3            storage.S3Config
}

// SettingsFromEnv reads Settings from the environment.
func SettingsFromEnv() Settings {
	return Settings{
		DatabaseURL:       config.Get("DATABASE_URL", ""),
		DBPath:            config.Get("DB_PATH", "data/app.db"),
		SeedPath:          config.Get("SEED_PATH", "data/seeds/cases.json"),
		FinderConfig:      config.Get("FINDER_CONFIG", ""),
		MapsAPIKey:        config.Get("MAPS_API_KEY", ""),
		StreetViewBaseURL: config.Get("STREETVIEW_BASE_URL", ""),
		FixturePath:       config.Get("STREETVIEW_FIXTURE", ""),
		ScreenshotDir:     config.Get("SCREENSHOT_DIR", "screenshots"),
		S3: storage.S3Config{
			Bucket:    config.Get("S3_BUCKET", ""),
			Region:    config.Get("AWS_REGION", ""),
			AccessKey: config.Get("AWS_ACCESS_KEY_ID", ""),
			SecretKey: config.Get("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:  config.Get("S3_ENDPOINT", ""),
			Prefix:    config.Get("S3_PREFIX", ""),
		},
	}
}

type App struct {
	DB          *sql.DB
	Cases       ports.CaseRepository
	Results     ports.ResultCache
	Screenshots ports.ScreenshotStore
	Finder      *services.PanoramaFinder
}

// New opens the database and builds every adapter. Close releases the database.
func New(ctx context.Context, s Settings, log *zap.Logger) (_ *App, err error) {
	if log == nil {
		log = zap.NewNop()
	}

	finderCfg, err := config.LoadFinder(s.FinderConfig)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	panoService, err := newPanoramaService(s, log)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	finder, err := services.NewPanoramaFinder(panoService, finderCfg, log)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{Finder: finder}

	if s.DatabaseURL != "" {
		a.DB, err = db.Open(s.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Cases = repositories.NewSQLCaseRepository(a.DB)
		a.Results = cache.NewSQLResultCache(a.DB, log)
	} else {
		a.DB, err = db.OpenSQLite(s.DBPath)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Cases = repositories.NewSqliteCaseRepository(a.DB)
		a.Results = cache.NewSqliteResultCache(a.DB, log)
	}
	defer func() {
		if err != nil {
			_ = a.DB.Close()
		}
	}()

	if s.DatabaseURL == "" {
		// Initialize schema and seed demo data on startup for local runs.
		if err := repositories.InitSchema(ctx, a.DB); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		if s.SeedPath != "" {
			if err := repositories.SeedFromJSON(ctx, a.DB, s.SeedPath); err != nil {
				return nil, fmt.Errorf("app: %w", err)
			}
		}
	}

	if s.S3.Bucket != "" {
		a.Screenshots, err = storage.NewS3ScreenshotStore(ctx, s.S3)
	} else {
		a.Screenshots, err = storage.NewLocalScreenshotStore(s.ScreenshotDir)
	}
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	return a, nil
}

func newPanoramaService(s Settings, log *zap.Logger) (ports.PanoramaService, error) {
	if s.FixturePath != "" {
		log.Info("using fixture panorama service", zap.String("path", s.FixturePath))
		return streetview.LoadFixtureService(s.FixturePath)
	}

	if s.MapsAPIKey == "" {
		return nil, errors.New("MAPS_API_KEY is required unless STREETVIEW_FIXTURE is set")
	}

	opts := []streetview.Option{streetview.WithLogger(log)}
	if s.StreetViewBaseURL != "" {
		opts = append(opts, streetview.WithBaseURL(s.StreetViewBaseURL))
	}
	return streetview.NewGoogleStreetView(s.MapsAPIKey, opts...)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
