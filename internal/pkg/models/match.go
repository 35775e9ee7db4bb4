package models

// DriverMatch is a scored driver candidate. Derived during matching, never
// stored.
type DriverMatch struct {
	Driver                  Driver   `json:"driver"`
	Score                   float64  `json:"score"`
	DistanceMeters          float64  `json:"distance_meters"`
	EstimatedArrivalSeconds float64  `json:"estimated_arrival_seconds"`
	Reasons                 []string `json:"reasons,omitempty"`
	Drawbacks               []string `json:"drawbacks,omitempty"`
	Confidence              float64  `json:"confidence"` // 0..1
}

// MatchResult is the outcome of ranking the driver pool against a request.
// An empty eligible pool is a first-class result, not an error: alternatives
// carry substitute service tiers the rider may book instead.
type MatchResult struct {
	Success         bool                   `json:"success"`
	Best            *DriverMatch           `json:"best,omitempty"`
	Alternatives    []DriverMatch          `json:"alternatives,omitempty"`
	ErrorCode       string                 `json:"error,omitempty"`
	TierSuggestions []RideOptionSuggestion `json:"tier_suggestions,omitempty"`
}
