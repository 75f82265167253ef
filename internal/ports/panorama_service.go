package ports

import (
	"context"
	"streetview-pano-service/internal/domain"
)

// The primary location record of a panorama lookup response.
type PanoLocation struct {
	PanoID string
	LatLng domain.Coordinate
}

// One sibling capture record. The key holding the timestamp is not fixed
// by the upstream schema, so records are kept as raw key/value maps.
type CaptureRecord map[string]any

// Raw panorama data returned by a successful lookup.
type PanoData struct {
	Location  PanoLocation
	ImageDate string
	Time      []CaptureRecord
}

// Contract for looking up the panorama closest to a location.
type PanoramaService interface {
	// Return the panorama matching the request and the service status.
	// data is nil unless status is OK. A non-nil error means the call
	// itself failed (transport, decoding); callers treat it like a miss.
	GetPanorama(ctx context.Context, req domain.PanoRequest) (data *PanoData, status domain.ServiceStatus, err error)
}
