// Package geo provides pure distance, bearing and ETA math used by matching
// and fare estimation.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/danisworo/jalur/internal/pkg/models"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula
	EarthRadiusMeters = 6371000.0

	// DefaultSpeedKmh is the average urban speed assumed when no live traffic
	// estimate is available
	DefaultSpeedKmh = 25.0
)

// Distance returns the haversine distance between two locations in meters.
func Distance(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// ETASeconds converts a distance into a travel-time estimate at the given
// average speed. A non-positive speed falls back to DefaultSpeedKmh.
func ETASeconds(distanceMeters, avgSpeedKmh float64) float64 {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultSpeedKmh
	}
	metersPerSecond := avgSpeedKmh * 1000 / 3600
	return distanceMeters / metersPerSecond
}

// Bearing returns the initial bearing in degrees (0..360) from a to b.
func Bearing(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180.0 / math.Pi

	return math.Mod(deg+360.0, 360.0)
}

// EncodeCell returns the geohash cell for a location at the given precision.
func EncodeCell(loc models.Location, precision uint) string {
	return geohash.EncodeWithPrecision(loc.Latitude, loc.Longitude, precision)
}

// CellNeighbors returns the given cell plus its eight neighbors. Pool
// queries scan the full ring to avoid edge effects near cell boundaries.
func CellNeighbors(cell string) []string {
	return append([]string{cell}, geohash.Neighbors(cell)...)
}
