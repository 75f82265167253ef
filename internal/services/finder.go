package services

import (
	"context"
	"errors"
	"fmt"
	"streetview-pano-service/internal/config"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"
	"streetview-pano-service/internal/ports"

	"go.uber.org/zap"
)

var (
	// ErrNoPanorama means no panorama was found before the radius ceiling.
	ErrNoPanorama = errors.New("no panorama found")
	// ErrMalformedPanorama means an OK response could not be reshaped into a result.
	ErrMalformedPanorama = errors.New("malformed panorama data")

	errServiceCall   = errors.New("service call failed")
	errServiceStatus = errors.New("service status not OK")
)

// missKind names why an attempt missed, for logs.
func missKind(err error) string {
	switch {
	case errors.Is(err, errServiceCall):
		return "transport"
	case errors.Is(err, ErrMalformedPanorama):
		return "malformed"
	case errors.Is(err, errServiceStatus):
		return "status"
	default:
		return "unknown"
	}
}

// PanoramaFinder locates the nearest panorama to a point of interest,
// widening the search radius on each miss, and reports the outcome to a
// render sink.
//
// A finder holds no per-session state and is safe for concurrent use;
// each FindPanorama call is one strictly sequential session.
type PanoramaFinder struct {
	service ports.PanoramaService
	cfg     config.Finder
	log     *zap.Logger
}

func NewPanoramaFinder(service ports.PanoramaService, cfg config.Finder, log *zap.Logger) (*PanoramaFinder, error) {
	if service == nil {
		return nil, errors.New("new panorama finder: service must be non-nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new panorama finder: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PanoramaFinder{service: service, cfg: cfg, log: log}, nil
}

// NewRequest builds the first request of a session around origin.
func (f *PanoramaFinder) NewRequest(origin domain.Coordinate) domain.PanoRequest {
	return domain.PanoRequest{
		Location:   origin,
		Preference: domain.ParsePreference(f.cfg.Preference),
		Radius:     f.cfg.InitialRadius,
		Source:     domain.ParseSource(f.cfg.Source),
	}
}

// Find runs a lookup session starting from the configured initial radius.
func (f *PanoramaFinder) Find(ctx context.Context, session domain.Session, sink ports.RenderSink) (*domain.PanoResult, error) {
	return f.FindPanorama(ctx, session, f.NewRequest(session.Origin), sink)
}

// FindPanorama looks up the panorama nearest to req.Location.
//
// Any miss (non-OK status, failed call, malformed payload) widens the radius
// by the configured step. Attempts are only issued below the radius ceiling,
// so with the defaults the radii tried are 10, 35, 60 and 85 meters. When the
// ceiling is reached the sink's Fail is called once and ErrNoPanorama is
// returned. On success the result is rendered and returned.
func (f *PanoramaFinder) FindPanorama(
	ctx context.Context,
	session domain.Session,
	req domain.PanoRequest,
	sink ports.RenderSink,
) (_ *domain.PanoResult, err error) {
	defer obs.Time(ctx, f.log, "finder.FindPanorama")(&err)

	if sink == nil {
		return nil, errors.New("find panorama: sink must be non-nil")
	}

	var (
		attempts   int
		lastStatus domain.ServiceStatus
		lastRadius float64
		lastMiss   error
	)

	for attempt := req; attempt.Radius < f.cfg.MaxRadius; attempt = attempt.WithRadius(attempt.Radius + f.cfg.RadiusStep) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("find panorama: %w", err)
		}

		attempts++
		lastRadius = attempt.Radius

		result, status, missErr := f.attempt(ctx, session, attempt)
		lastStatus = status
		lastMiss = missErr
		if missErr == nil {
			result.Attempts = attempts
			if err := sink.Render(ctx, session, result); err != nil {
				return nil, fmt.Errorf("find panorama: render: %w", err)
			}
			return result, nil
		}

		next := attempt.Radius + f.cfg.RadiusStep
		if next >= f.cfg.MaxRadius {
			break
		}

		f.log.Info("panorama miss, widening radius",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("case_id", session.CaseID),
			zap.String("status", string(status)),
			zap.Float64("radius", attempt.Radius),
			zap.Float64("next_radius", next),
			zap.String("miss", missKind(missErr)),
			zap.NamedError("cause", missErr),
		)
	}

	failure := fmt.Errorf(
		"find panorama: %w within %vm of %s (status %s, %d attempts)",
		ErrNoPanorama, lastRadius, req.Location, lastStatus, attempts,
	)

	f.log.Error("could not find panorama, giving up",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("case_id", session.CaseID),
		zap.String("status", string(lastStatus)),
		zap.Float64("radius", lastRadius),
		zap.Int("attempts", attempts),
		zap.String("miss", missKind(lastMiss)),
		zap.NamedError("cause", lastMiss),
	)

	if err := sink.Fail(ctx, session, failure); err != nil {
		return nil, errors.Join(failure, fmt.Errorf("find panorama: report failure: %w", err))
	}

	return nil, failure
}

// LookupPanorama fetches a known panorama by id with a single attempt and
// orients it toward the session origin.
func (f *PanoramaFinder) LookupPanorama(
	ctx context.Context,
	session domain.Session,
	panoID string,
	sink ports.RenderSink,
) (_ *domain.PanoResult, err error) {
	defer obs.Time(ctx, f.log, "finder.LookupPanorama")(&err)

	if panoID == "" {
		return nil, errors.New("lookup panorama: pano id must be non-empty")
	}
	if sink == nil {
		return nil, errors.New("lookup panorama: sink must be non-nil")
	}

	req := f.NewRequest(session.Origin)
	req.PanoID = panoID

	result, status, missErr := f.attempt(ctx, session, req)
	if missErr != nil {
		failure := fmt.Errorf("lookup panorama %q: %w (status %s): %v", panoID, ErrNoPanorama, status, missErr)
		if err := sink.Fail(ctx, session, failure); err != nil {
			return nil, errors.Join(failure, fmt.Errorf("lookup panorama: report failure: %w", err))
		}
		return nil, failure
	}

	result.Attempts = 1
	if err := sink.Render(ctx, session, result); err != nil {
		return nil, fmt.Errorf("lookup panorama: render: %w", err)
	}
	return result, nil
}

// attempt issues one lookup. A nil error means result is complete.
func (f *PanoramaFinder) attempt(
	ctx context.Context,
	session domain.Session,
	req domain.PanoRequest,
) (*domain.PanoResult, domain.ServiceStatus, error) {
	data, status, err := f.service.GetPanorama(ctx, req)
	if err != nil {
		if status == "" {
			status = domain.StatusUnknownError
		}
		return nil, status, fmt.Errorf("%w: %w", errServiceCall, err)
	}
	if !status.OK() {
		return nil, status, fmt.Errorf("%w: %s", errServiceStatus, status)
	}
	if data == nil {
		return nil, status, fmt.Errorf("%w: OK status without data", ErrMalformedPanorama)
	}

	result, err := buildResult(session.Origin, req.Radius, data)
	if err != nil {
		return nil, status, err
	}
	return result, status, nil
}

// buildResult reshapes raw panorama data into a PanoResult facing origin.
func buildResult(origin domain.Coordinate, radius float64, data *ports.PanoData) (*domain.PanoResult, error) {
	if data.Location.PanoID == "" {
		return nil, fmt.Errorf("build result: %w: missing pano id", ErrMalformedPanorama)
	}

	captureDate, err := domain.ParseYearMonth(data.ImageDate)
	if err != nil {
		return nil, fmt.Errorf("build result: %w: image date: %v", ErrMalformedPanorama, err)
	}

	others, err := otherCaptures(data.Time)
	if err != nil {
		return nil, fmt.Errorf("build result: %w", err)
	}

	return &domain.PanoResult{
		PanoID:         data.Location.PanoID,
		CaptureDate:    captureDate,
		Heading:        ComputeHeading(data.Location.LatLng, origin),
		Location:       data.Location.LatLng,
		DistanceMeters: distanceMeters(data.Location.LatLng, origin),
		Radius:         radius,
		OtherCaptures:  others,
	}, nil
}
