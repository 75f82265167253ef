package ports

import (
	"context"
	"streetview-pano-service/internal/domain"
)

// Contract for presenting a lookup session's outcome.
type RenderSink interface {
	// Display the panorama facing the session origin and publish its
	// id, capture date and other captures.
	Render(ctx context.Context, session domain.Session, result *domain.PanoResult) error
	// Display a blocking, user-visible error notice.
	Fail(ctx context.Context, session domain.Session, cause error) error
}
