package models

import "time"

// Location represents a geographical point with an optional street address
type Location struct {
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Address   string    `json:"address,omitempty" db:"address"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Valid reports whether the coordinates are within WGS84 bounds and the
// address is populated. Rides may only be created against valid locations.
func (l Location) Valid() bool {
	if l.Latitude < -90 || l.Latitude > 90 {
		return false
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return false
	}
	return l.Address != ""
}

// DriverStatusUpdate represents a driver status change event
type DriverStatusUpdate struct {
	DriverID  string       `json:"driver_id"`
	Status    DriverStatus `json:"status"`
	Location  *Location    `json:"location,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
