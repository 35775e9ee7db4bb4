// Package usecase implements the ride lifecycle business logic.
package usecase

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/geo"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/match"
	"github.com/danisworo/jalur/services/pricing"
	"github.com/danisworo/jalur/services/rides"
)

// RideUC implements the ride lifecycle over the ride repository, the driver
// pool and the matcher.
type RideUC struct {
	cfg     models.PricingConfig
	repo    rides.RideRepo
	gw      rides.RideGW
	matcher match.MatchUC
	pool    match.DriverPoolRepo
	calc    *pricing.Calculator
}

// NewRideUC creates a new ride usecase
func NewRideUC(
	cfg models.PricingConfig,
	repo rides.RideRepo,
	gw rides.RideGW,
	matcher match.MatchUC,
	pool match.DriverPoolRepo,
	calc *pricing.Calculator,
) *RideUC {
	return &RideUC{
		cfg:     cfg,
		repo:    repo,
		gw:      gw,
		matcher: matcher,
		pool:    pool,
		calc:    calc,
	}
}

// EstimateFare quotes a fare for the route without touching the driver pool.
func (uc *RideUC) EstimateFare(_ context.Context, req rides.EstimateRequest) (*rides.Estimate, error) {
	if !req.Pickup.Valid() {
		return nil, apperr.New(apperr.CodeInvalidLocation, "pickup location is invalid")
	}
	if !req.Destination.Valid() {
		return nil, apperr.New(apperr.CodeInvalidLocation, "destination location is invalid")
	}
	optionID := req.RideOptionID
	if optionID == "" {
		optionID = "standard"
	}
	option, ok := pricing.OptionByID(optionID)
	if !ok {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "unknown ride option: "+optionID)
	}

	distanceMeters := geo.Distance(req.Pickup, req.Destination)
	durationSec := geo.ETASeconds(distanceMeters, uc.cfg.AvgSpeedKmh)

	fare, err := uc.calc.Estimate(pricing.EstimateInput{
		DistanceKm:      distanceMeters / 1000,
		DurationMinutes: durationSec / 60,
		SurgeMultiplier: req.SurgeMultiplier,
		TaxRate:         uc.cfg.TaxRate,
		TierMultiplier:  option.PriceMultiplier,
	})
	if err != nil {
		return nil, err
	}

	return &rides.Estimate{
		Fare:            fare,
		DistanceMeters:  distanceMeters,
		DurationSeconds: int(math.Round(durationSec)),
		RideOptionID:    option.ID,
	}, nil
}

// GetRide fetches a single ride.
func (uc *RideUC) GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return uc.repo.GetRideByID(ctx, id)
}

// ListHistory returns a rider's rides, most recent first.
func (uc *RideUC) ListHistory(ctx context.Context, riderID string, limit, offset int) ([]models.Ride, error) {
	if riderID == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "rider_id is required")
	}
	return uc.repo.ListRidesByRider(ctx, riderID, limit, offset)
}
