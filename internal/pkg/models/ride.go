package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the current status of a ride
type RideStatus string

const (
	RideStatusPending         RideStatus = "pending"
	RideStatusAccepted        RideStatus = "accepted"
	RideStatusConfirmed       RideStatus = "confirmed"
	RideStatusArriving        RideStatus = "arriving"
	RideStatusArrived         RideStatus = "arrived"
	RideStatusInProgress      RideStatus = "in_progress"
	RideStatusCompleted       RideStatus = "completed"
	RideStatusCancelled       RideStatus = "cancelled"
	RideStatusDriverCancelled RideStatus = "driver_cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled || s == RideStatusDriverCancelled
}

// RidePreferences carries rider preferences that act as hard filters during
// matching rather than score adjustments.
type RidePreferences struct {
	FemaleDriverOnly bool `json:"female_driver_only,omitempty"`
}

// RideRequest represents an incoming ride request. Immutable once submitted
// to the matcher.
type RideRequest struct {
	ID                  string           `json:"id"`
	RiderID             string           `json:"rider_id"`
	Pickup              Location         `json:"pickup"`
	Destination         Location         `json:"destination"`
	RideOptionID        string           `json:"ride_option_id"`
	PassengerCount      int              `json:"passenger_count"`
	SpecialRequirements []string         `json:"special_requirements,omitempty"`
	Preferences         *RidePreferences `json:"preferences,omitempty"`
	ScheduledTime       *time.Time       `json:"scheduled_time,omitempty"`
}

// Ride is the central mutable entity of the dispatch engine. Status is owned
// exclusively by the ride lifecycle; rows are retained forever once terminal.
type Ride struct {
	ID                      uuid.UUID        `json:"id"`
	RiderID                 string           `json:"rider_id"`
	DriverID                string           `json:"driver_id,omitempty"`
	Pickup                  Location         `json:"pickup"`
	Destination             Location         `json:"destination"`
	RideOptionID            string           `json:"ride_option_id"`
	PassengerCount          int              `json:"passenger_count"`
	SpecialRequirements     []string         `json:"special_requirements,omitempty"`
	Preferences             *RidePreferences `json:"preferences,omitempty"`
	Status                  RideStatus       `json:"status"`
	Pricing                 *FareBreakdown   `json:"pricing,omitempty"`
	EstimatedDurationSec    int              `json:"estimated_duration_seconds"`
	EstimatedDistanceMeters float64          `json:"estimated_distance_meters"`
	CancellationReason      string           `json:"cancellation_reason,omitempty"`
	CancellationFee         float64          `json:"cancellation_fee,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
	ConfirmedAt             *time.Time       `json:"confirmed_at,omitempty"`
	CancelledAt             *time.Time       `json:"cancelled_at,omitempty"`
	CompletedAt             *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// RideDTO flattens the nested Location and FareBreakdown structs for
// database operations.
type RideDTO struct {
	ID                 uuid.UUID  `db:"id"`
	RiderID            string     `db:"rider_id"`
	DriverID           string     `db:"driver_id"`
	PickupLatitude     float64    `db:"pickup_latitude"`
	PickupLongitude    float64    `db:"pickup_longitude"`
	PickupAddress      string     `db:"pickup_address"`
	DropoffLatitude    float64    `db:"dropoff_latitude"`
	DropoffLongitude   float64    `db:"dropoff_longitude"`
	DropoffAddress     string     `db:"dropoff_address"`
	RideOptionID       string     `db:"ride_option_id"`
	PassengerCount     int        `db:"passenger_count"`
	SpecialRequires    string     `db:"special_requirements"`
	FemaleDriverOnly   bool       `db:"female_driver_only"`
	Status             RideStatus `db:"status"`
	BaseFare           float64    `db:"base_fare"`
	DistanceFare       float64    `db:"distance_fare"`
	TimeFare           float64    `db:"time_fare"`
	SurgeFare          float64    `db:"surge_fare"`
	Tolls              float64    `db:"tolls"`
	Tip                float64    `db:"tip"`
	Tax                float64    `db:"tax"`
	TotalFare          float64    `db:"total"`
	Currency           string     `db:"currency"`
	EstimatedDuration  int        `db:"estimated_duration_sec"`
	EstimatedDistanceM float64    `db:"estimated_distance_m"`
	CancellationReason string     `db:"cancellation_reason"`
	CancellationFee    float64    `db:"cancellation_fee"`
	CreatedAt          time.Time  `db:"created_at"`
	ConfirmedAt        *time.Time `db:"confirmed_at"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// ToDTO converts a Ride to its flat database representation
func (r *Ride) ToDTO() *RideDTO {
	dto := &RideDTO{
		ID:                 r.ID,
		RiderID:            r.RiderID,
		DriverID:           r.DriverID,
		PickupLatitude:     r.Pickup.Latitude,
		PickupLongitude:    r.Pickup.Longitude,
		PickupAddress:      r.Pickup.Address,
		DropoffLatitude:    r.Destination.Latitude,
		DropoffLongitude:   r.Destination.Longitude,
		DropoffAddress:     r.Destination.Address,
		RideOptionID:       r.RideOptionID,
		PassengerCount:     r.PassengerCount,
		SpecialRequires:    strings.Join(r.SpecialRequirements, ","),
		Status:             r.Status,
		EstimatedDuration:  r.EstimatedDurationSec,
		EstimatedDistanceM: r.EstimatedDistanceMeters,
		CancellationReason: r.CancellationReason,
		CancellationFee:    r.CancellationFee,
		CreatedAt:          r.CreatedAt,
		ConfirmedAt:        r.ConfirmedAt,
		CancelledAt:        r.CancelledAt,
		CompletedAt:        r.CompletedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.Preferences != nil {
		dto.FemaleDriverOnly = r.Preferences.FemaleDriverOnly
	}
	if r.Pricing != nil {
		dto.BaseFare = r.Pricing.Base
		dto.DistanceFare = r.Pricing.DistanceFare
		dto.TimeFare = r.Pricing.TimeFare
		dto.SurgeFare = r.Pricing.SurgeFare
		dto.Tolls = r.Pricing.Tolls
		dto.Tip = r.Pricing.Tip
		dto.Tax = r.Pricing.Tax
		dto.TotalFare = r.Pricing.Total
		dto.Currency = r.Pricing.Currency
	}
	return dto
}

// ToRide converts a RideDTO back to the nested Ride representation
func (dto *RideDTO) ToRide() *Ride {
	var requirements []string
	if dto.SpecialRequires != "" {
		requirements = strings.Split(dto.SpecialRequires, ",")
	}
	var prefs *RidePreferences
	if dto.FemaleDriverOnly {
		prefs = &RidePreferences{FemaleDriverOnly: true}
	}
	return &Ride{
		ID:                  dto.ID,
		RiderID:             dto.RiderID,
		DriverID:            dto.DriverID,
		Pickup:              Location{Latitude: dto.PickupLatitude, Longitude: dto.PickupLongitude, Address: dto.PickupAddress},
		Destination:         Location{Latitude: dto.DropoffLatitude, Longitude: dto.DropoffLongitude, Address: dto.DropoffAddress},
		RideOptionID:        dto.RideOptionID,
		PassengerCount:      dto.PassengerCount,
		SpecialRequirements: requirements,
		Preferences:         prefs,
		Status:              dto.Status,
		Pricing: &FareBreakdown{
			Base:         dto.BaseFare,
			DistanceFare: dto.DistanceFare,
			TimeFare:     dto.TimeFare,
			SurgeFare:    dto.SurgeFare,
			Tolls:        dto.Tolls,
			Tip:          dto.Tip,
			Tax:          dto.Tax,
			Total:        dto.TotalFare,
			Currency:     dto.Currency,
		},
		EstimatedDurationSec:    dto.EstimatedDuration,
		EstimatedDistanceMeters: dto.EstimatedDistanceM,
		CancellationReason:      dto.CancellationReason,
		CancellationFee:         dto.CancellationFee,
		CreatedAt:               dto.CreatedAt,
		ConfirmedAt:             dto.ConfirmedAt,
		CancelledAt:             dto.CancelledAt,
		CompletedAt:             dto.CompletedAt,
		UpdatedAt:               dto.UpdatedAt,
	}
}
