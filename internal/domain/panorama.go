package domain

import "strings"

// Which panorama the lookup service should favour within the radius.
type Preference string

const (
	PreferenceNearest Preference = "nearest"
	PreferenceBest    Preference = "best"
)

// Which imagery the lookup service may return.
type Source string

const (
	SourceOutdoor Source = "outdoor"
	SourceDefault Source = "default"
)

// ParsePreference maps a config value to a Preference, defaulting to nearest.
func ParsePreference(s string) Preference {
	if strings.EqualFold(strings.TrimSpace(s), string(PreferenceBest)) {
		return PreferenceBest
	}
	return PreferenceNearest
}

// ParseSource maps a config value to a Source, defaulting to outdoor.
func ParseSource(s string) Source {
	if strings.EqualFold(strings.TrimSpace(s), string(SourceDefault)) {
		return SourceDefault
	}
	return SourceOutdoor
}

// A single panorama lookup issued to the external service.
// PanoRequest is a value type: each attempt of a lookup session works on
// its own copy, so widening the radius never affects earlier attempts.
type PanoRequest struct {
	Location   Coordinate
	Preference Preference
	Radius     float64
	Source     Source
	// Set only when looking up a known panorama; Location and Radius
	// are then ignored by the service.
	PanoID string
}

// WithRadius returns a copy of the request with a different search radius.
func (r PanoRequest) WithRadius(radius float64) PanoRequest {
	r.Radius = radius
	return r
}

// One available capture of the same place, as shown in the date picker.
type Capture struct {
	PanoID string    `json:"pano"`
	Date   YearMonth `json:"date"`
}

// Fully-formed lookup outcome handed to a render sink.
// A PanoResult is produced once per session, on the successful attempt.
type PanoResult struct {
	PanoID         string     `json:"pano"`
	CaptureDate    YearMonth  `json:"date"`
	Heading        float64    `json:"heading"`
	Location       Coordinate `json:"location"`
	DistanceMeters float64    `json:"distance_meters"`
	Radius         float64    `json:"radius"`
	Attempts       int        `json:"attempts"`
	OtherCaptures  []Capture  `json:"other_captures"`
}

// Session carries the per-lookup context a render sink needs: which case
// is being shown and the point of interest the view should face.
type Session struct {
	CaseID string
	Origin Coordinate
}
