package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinate (latitude, longitude) in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return the coordinate as an orb.Point ([lng, lat]) for geodesic math.
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

// Return the coordinate as "lat,lng" for external API compatibility.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Validate reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Validate() error {
	if !isFinite(c.Lat) || !isFinite(c.Lng) {
		return fmt.Errorf("coordinate %v,%v is not finite", c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lng)
	}
	return nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ParseCoordinate builds a Coordinate from numeric strings, as supplied by
// page attributes and query parameters.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate: latitude %q: %w", lat, err)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate: longitude %q: %w", lng, err)
	}

	c := Coordinate{Lat: la, Lng: ln}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate: %w", err)
	}
	return c, nil
}
