// Package pricing computes fare breakdowns and cancellation fees. The
// calculator is a pure function of its inputs and configuration: identical
// inputs always produce bit-identical breakdowns.
package pricing

import (
	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/models"
)

// DefaultTaxRate applies when the caller does not supply one.
const DefaultTaxRate = 0.08

// EstimateInput carries the fare estimation parameters. Surge is supplied
// externally by the pricing service; this engine only applies it.
type EstimateInput struct {
	DistanceKm      float64
	DurationMinutes float64
	SurgeMultiplier float64 // 0 means "no surge supplied", treated as 1.0
	Tolls           float64
	Tip             float64
	TaxRate         float64 // 0 means DefaultTaxRate
	TierMultiplier  float64 // 0 means 1.0
}

// Calculator computes fares from configured rates.
type Calculator struct {
	cfg models.PricingConfig
}

// NewCalculator creates a fare calculator with the given pricing
// configuration.
func NewCalculator(cfg models.PricingConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Estimate computes an itemized fare breakdown.
//
// Surge only ever amplifies: a multiplier below 1 is rejected with
// INVALID_SURGE, and a multiplier of exactly 1 contributes zero surge fare.
func (c *Calculator) Estimate(in EstimateInput) (*models.FareBreakdown, error) {
	surge := in.SurgeMultiplier
	if surge == 0 {
		surge = 1.0
	}
	if surge < 1.0 {
		return nil, apperr.New(apperr.CodeInvalidSurge, "surge multiplier must be at least 1.0")
	}

	taxRate := in.TaxRate
	if taxRate == 0 {
		taxRate = DefaultTaxRate
	}
	tier := in.TierMultiplier
	if tier == 0 {
		tier = 1.0
	}

	base := Round2(c.cfg.BaseFare * tier)
	distanceFare := Round2(in.DistanceKm * c.cfg.PerKmRate * tier)
	timeFare := Round2(in.DurationMinutes * c.cfg.PerMinuteRate * tier)
	subtotal := base + distanceFare + timeFare

	var surgeFare float64
	if surge > 1.0 {
		surgeFare = Round2(subtotal * (surge - 1.0))
	}

	tolls := Round2(in.Tolls)
	tip := Round2(in.Tip)

	tax := Round2((subtotal + surgeFare + tolls + tip) * taxRate)
	total := Round2(subtotal+surgeFare+tolls+tip) + tax

	return &models.FareBreakdown{
		Base:         base,
		DistanceFare: distanceFare,
		TimeFare:     timeFare,
		SurgeFare:    surgeFare,
		Tolls:        tolls,
		Tip:          tip,
		Tax:          tax,
		Total:        total,
		Currency:     c.cfg.Currency,
	}, nil
}

// CancellationFee determines the fee owed for cancelling a ride in the
// given status. An explicit nonzero fee overrides the configured thresholds.
// The thresholds are configuration, not state-machine logic, so policy can
// change without touching transitions.
func (c *Calculator) CancellationFee(status models.RideStatus, ridePrice, explicitFee float64) float64 {
	if status == models.RideStatusPending {
		return 0
	}
	if explicitFee != 0 {
		return Round2(explicitFee)
	}

	switch status {
	case models.RideStatusConfirmed:
		return Round2(c.cfg.CancelFeeConfirmed)
	case models.RideStatusAccepted:
		return Round2(c.cfg.CancelFeeAccepted)
	case models.RideStatusArriving:
		return Round2(c.cfg.CancelFeeConfirmed)
	case models.RideStatusArrived:
		return Round2(c.cfg.CancelFeeArrived)
	case models.RideStatusInProgress:
		// cancelling mid-ride forfeits the full fare
		return Round2(ridePrice)
	default:
		return 0
	}
}
