package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/internal/pkg/observability"
	"github.com/danisworo/jalur/services/rides"
)

// BookRide runs the dispatch sequence: reject double bookings, match a
// driver, reserve them, price the route and persist the ride as confirmed.
//
// The reservation is the commit point. Everything after it either succeeds
// or releases the driver back to the pool.
func (uc *RideUC) BookRide(ctx context.Context, req models.RideRequest) (*models.Ride, *models.MatchResult, error) {
	active, err := uc.repo.GetActiveRideByRiderID(ctx, req.RiderID)
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		return nil, nil, apperr.New(apperr.CodeActiveRideExists,
			fmt.Sprintf("rider already has an active ride %s", active.ID))
	}

	result, err := uc.matcher.Match(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !result.Success {
		return nil, result, nil
	}

	winner, ok := uc.reserveFirst(ctx, result)
	if !ok {
		// every candidate was claimed by a concurrent dispatch between
		// scoring and reservation
		observability.MatchesTotal.WithLabelValues("no_drivers").Inc()
		return nil, &models.MatchResult{
			Success:   false,
			ErrorCode: apperr.CodeNoDriversAvailable,
		}, nil
	}

	estimate, err := uc.EstimateFare(ctx, rides.EstimateRequest{
		Pickup:       req.Pickup,
		Destination:  req.Destination,
		RideOptionID: req.RideOptionID,
	})
	if err != nil {
		uc.releaseQuietly(ctx, winner.Driver.ID)
		return nil, nil, err
	}

	ride := &models.Ride{
		ID:                      uuid.New(),
		RiderID:                 req.RiderID,
		DriverID:                winner.Driver.ID,
		Pickup:                  req.Pickup,
		Destination:             req.Destination,
		RideOptionID:            estimate.RideOptionID,
		PassengerCount:          req.PassengerCount,
		SpecialRequirements:     req.SpecialRequirements,
		Preferences:             req.Preferences,
		Status:                  models.RideStatusConfirmed,
		Pricing:                 estimate.Fare,
		EstimatedDurationSec:    estimate.DurationSeconds,
		EstimatedDistanceMeters: estimate.DistanceMeters,
	}

	if err := uc.repo.CreateRide(ctx, ride); err != nil {
		uc.releaseQuietly(ctx, winner.Driver.ID)
		return nil, nil, err
	}

	observability.TransitionsTotal.WithLabelValues(string(models.RideStatusConfirmed)).Inc()
	uc.emitStatusChanged(ride.ID, models.RideStatusPending, models.RideStatusConfirmed)

	logger.Info("ride booked",
		logger.String("ride_id", ride.ID.String()),
		logger.String("rider_id", ride.RiderID),
		logger.String("driver_id", ride.DriverID),
		logger.Float64("total_fare", ride.Pricing.Total))

	return ride, result, nil
}

// reserveFirst claims the best scored driver, falling through to the
// alternatives when a concurrent dispatch wins the race.
func (uc *RideUC) reserveFirst(ctx context.Context, result *models.MatchResult) (*models.DriverMatch, bool) {
	candidates := append([]models.DriverMatch{*result.Best}, result.Alternatives...)
	for i := range candidates {
		claimed, err := uc.pool.ReserveDriver(ctx, candidates[i].Driver.ID)
		if err != nil {
			logger.Warn("driver reservation failed",
				logger.String("driver_id", candidates[i].Driver.ID),
				logger.Err(err))
			continue
		}
		if claimed {
			return &candidates[i], true
		}
	}
	return nil, false
}

func (uc *RideUC) releaseQuietly(ctx context.Context, driverID string) {
	if err := uc.pool.ReleaseDriver(ctx, driverID); err != nil {
		logger.Error("failed to release driver after aborted booking",
			logger.String("driver_id", driverID),
			logger.Err(err))
	}
}

// emitStatusChanged publishes the transition event without blocking the
// caller. Event delivery failures are logged, never propagated.
func (uc *RideUC) emitStatusChanged(rideID uuid.UUID, from, to models.RideStatus) {
	event := models.RideStatusEvent{
		Type:       "ride.status.changed",
		RideID:     rideID.String(),
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  time.Now(),
	}
	go func() {
		if err := uc.gw.PublishStatusChanged(event); err != nil {
			logger.Error("failed to publish ride status event",
				logger.String("ride_id", event.RideID),
				logger.Err(err))
		}
	}()
}
