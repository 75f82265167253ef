package services

import (
	"streetview-pano-service/internal/domain"

	"github.com/paulmach/orb/geo"
)

// ComputeHeading returns the initial great-circle bearing, in degrees within
// [-180, 180], from the panorama's location toward the point of interest.
func ComputeHeading(pano, target domain.Coordinate) float64 {
	return geo.Bearing(pano.Point(), target.Point())
}

// distanceMeters is the great-circle distance between two coordinates.
func distanceMeters(a, b domain.Coordinate) float64 {
	return geo.Distance(a.Point(), b.Point())
}
