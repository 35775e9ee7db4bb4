package models

// FareBreakdown represents the itemized pricing of a ride. All monetary
// fields carry exactly two decimal places (round-half-up at the cent).
type FareBreakdown struct {
	Base         float64 `json:"base" db:"base_fare"`
	DistanceFare float64 `json:"distance_fare" db:"distance_fare"`
	TimeFare     float64 `json:"time_fare" db:"time_fare"`
	SurgeFare    float64 `json:"surge_fare" db:"surge_fare"`
	Tolls        float64 `json:"tolls" db:"tolls"`
	Tip          float64 `json:"tip" db:"tip"`
	Tax          float64 `json:"tax" db:"tax"`
	Total        float64 `json:"total" db:"total"`
	Currency     string  `json:"currency" db:"currency"`
}

// RideOption represents a bookable service tier with its price multiplier
type RideOption struct {
	ID              string      `json:"id"`
	DisplayName     string      `json:"display_name"`
	VehicleType     VehicleType `json:"vehicle_type"`
	PriceMultiplier float64     `json:"price_multiplier"`
	TypicalWaitSec  int         `json:"typical_wait_seconds"`
}

// RideOptionSuggestion is offered to the rider when the requested tier has
// no available drivers.
type RideOptionSuggestion struct {
	Option           RideOption `json:"option"`
	EstimatedWaitSec int        `json:"estimated_wait_seconds"`
	PriceMultiplier  float64    `json:"price_multiplier"`
}
