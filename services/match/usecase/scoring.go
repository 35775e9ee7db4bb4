package usecase

import (
	"fmt"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// scoreBase is the starting score before any rule applies.
const scoreBase = 100.0

// scoreRule is one additive scoring adjustment. Rules are declarative so
// weights can be tuned and unit-tested independent of matching control flow.
type scoreRule struct {
	name    string
	applies func(c *candidate) bool
	delta   float64
	reason  string // set on Reasons for positive deltas, Drawbacks for negative
}

type candidate struct {
	driver            models.Driver
	distanceMeters    float64
	vehicleExactMatch bool
}

// scoreRules is the ranking table. Distance penalizes, quality signals
// reward; hard requirements are filtered out before scoring and never
// appear here.
var scoreRules = []scoreRule{
	{
		name:    "distance_over_10km",
		applies: func(c *candidate) bool { return c.distanceMeters > 10000 },
		delta:   -50,
		reason:  "very far from pickup",
	},
	{
		name:    "distance_over_5km",
		applies: func(c *candidate) bool { return c.distanceMeters > 5000 && c.distanceMeters <= 10000 },
		delta:   -30,
		reason:  "far from pickup",
	},
	{
		name:    "distance_over_2km",
		applies: func(c *candidate) bool { return c.distanceMeters > 2000 && c.distanceMeters <= 5000 },
		delta:   -15,
		reason:  "moderate distance from pickup",
	},
	{
		name:    "rating_excellent",
		applies: func(c *candidate) bool { return c.driver.Rating >= 4.8 },
		delta:   20,
		reason:  "top rated driver",
	},
	{
		name:    "rating_great",
		applies: func(c *candidate) bool { return c.driver.Rating >= 4.5 && c.driver.Rating < 4.8 },
		delta:   10,
		reason:  "highly rated driver",
	},
	{
		name:    "rating_low",
		applies: func(c *candidate) bool { return c.driver.Rating < 4.0 },
		delta:   -20,
		reason:  "below average rating",
	},
	{
		name:    "acceptance_high",
		applies: func(c *candidate) bool { return c.driver.AcceptanceRate >= 0.9 },
		delta:   15,
		reason:  "reliably accepts rides",
	},
	{
		name:    "acceptance_low",
		applies: func(c *candidate) bool { return c.driver.AcceptanceRate < 0.7 },
		delta:   -15,
		reason:  "frequently declines rides",
	},
	{
		name:    "experience_veteran",
		applies: func(c *candidate) bool { return c.driver.CompletedRides >= 1000 },
		delta:   10,
		reason:  "veteran driver",
	},
	{
		name:    "experience_seasoned",
		applies: func(c *candidate) bool { return c.driver.CompletedRides >= 500 && c.driver.CompletedRides < 1000 },
		delta:   5,
		reason:  "experienced driver",
	},
	{
		name:    "experience_new",
		applies: func(c *candidate) bool { return c.driver.CompletedRides < 50 },
		delta:   -5,
		reason:  "new driver",
	},
	{
		name:    "vehicle_exact_match",
		applies: func(c *candidate) bool { return c.vehicleExactMatch },
		delta:   10,
		reason:  "exact vehicle match",
	},
}

// scoreCandidate applies the rule table and returns the score with the
// accumulated reasons and drawbacks.
func scoreCandidate(c *candidate) (score float64, reasons, drawbacks []string) {
	score = scoreBase
	reasons = append(reasons, fmt.Sprintf("%.1f km from pickup", c.distanceMeters/1000))

	for _, rule := range scoreRules {
		if !rule.applies(c) {
			continue
		}
		score += rule.delta
		if rule.delta >= 0 {
			reasons = append(reasons, rule.reason)
		} else {
			drawbacks = append(drawbacks, rule.reason)
		}
	}
	return score, reasons, drawbacks
}

// clampConfidence maps a score onto the 0..1 confidence range.
func clampConfidence(score float64) float64 {
	c := score / scoreBase
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// compatibleVehicles maps a requested tier's vehicle type to the driver
// vehicle types that may serve it. Larger or nicer vehicles can cover a
// standard request; specialized tiers require the exact type.
var compatibleVehicles = map[models.VehicleType][]models.VehicleType{
	models.VehicleTypeSedan:      {models.VehicleTypeSedan, models.VehicleTypeSUV, models.VehicleTypeLuxury, models.VehicleTypeElectric},
	models.VehicleTypeSUV:        {models.VehicleTypeSUV},
	models.VehicleTypeLuxury:     {models.VehicleTypeLuxury},
	models.VehicleTypeElectric:   {models.VehicleTypeElectric},
	models.VehicleTypeMotorcycle: {models.VehicleTypeMotorcycle},
}

func vehicleCompatible(requested, actual models.VehicleType) bool {
	for _, t := range compatibleVehicles[requested] {
		if t == actual {
			return true
		}
	}
	return false
}
