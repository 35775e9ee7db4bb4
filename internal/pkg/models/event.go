package models

import "time"

// RideStatusEvent is emitted on every successful ride status transition.
// Delivery is fire-and-forget; consumers are the notification and telemetry
// services.
type RideStatusEvent struct {
	Type       string     `json:"type"`
	RideID     string     `json:"ride_id"`
	FromStatus RideStatus `json:"from_status"`
	ToStatus   RideStatus `json:"to_status"`
	Timestamp  time.Time  `json:"timestamp"`
}

// RedispatchEvent asks the orchestrator to find a replacement driver after a
// driver-side cancellation.
type RedispatchEvent struct {
	RideID           string    `json:"ride_id"`
	ExcludedDriverID string    `json:"excluded_driver_id"`
	Timestamp        time.Time `json:"timestamp"`
}
