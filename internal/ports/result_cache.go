package ports

import (
	"context"
	"streetview-pano-service/internal/domain"
)

// Persistent store of finished lookups, keyed by case id.
type ResultCache interface {
	// Fetch cached results for the given case ids; missing ids are absent from the map.
	GetMany(ctx context.Context, caseIDs []string) (map[string]*domain.PanoResult, error)
	// Store results keyed by case id, replacing older entries.
	PutMany(ctx context.Context, results map[string]*domain.PanoResult) error
}

// Destination for uploaded screenshots.
type ScreenshotStore interface {
	// Persist the screenshot and return the key or path it was stored under.
	Save(ctx context.Context, shot domain.Screenshot) (string, error)
}
