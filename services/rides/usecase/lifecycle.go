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
)

// CancelledByDriver marks a cancellation as driver-initiated; any other
// value is treated as the rider.
const CancelledByDriver = "driver"

// allowedTransitions is the forward edge set of the ride state machine.
// Cancellation edges are handled separately because they carry fees.
var allowedTransitions = map[models.RideStatus][]models.RideStatus{
	models.RideStatusPending:    {models.RideStatusAccepted, models.RideStatusConfirmed},
	models.RideStatusAccepted:   {models.RideStatusConfirmed},
	models.RideStatusConfirmed:  {models.RideStatusArriving, models.RideStatusArrived},
	models.RideStatusArriving:   {models.RideStatusArrived},
	models.RideStatusArrived:    {models.RideStatusInProgress},
	models.RideStatusInProgress: {models.RideStatusCompleted},
}

func transitionAllowed(from, to models.RideStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MarkArriving records the driver heading to the pickup point. Optional:
// MarkArrived is also legal straight from confirmed, for drivers whose app
// never reports the en-route leg.
func (uc *RideUC) MarkArriving(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return uc.transition(ctx, id, models.RideStatusArriving)
}

// MarkArrived records driver arrival at the pickup point.
func (uc *RideUC) MarkArrived(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return uc.transition(ctx, id, models.RideStatusArrived)
}

// MarkInProgress records the ride starting.
func (uc *RideUC) MarkInProgress(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return uc.transition(ctx, id, models.RideStatusInProgress)
}

// MarkCompleted records the ride finishing and returns the driver to the
// available pool.
func (uc *RideUC) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	ride, err := uc.transition(ctx, id, models.RideStatusCompleted)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != "" {
		uc.releaseQuietly(ctx, ride.DriverID)
	}
	return ride, nil
}

// transition applies one forward edge of the state machine. The repository
// compare-and-set guarantees each edge is applied at most once even under
// concurrent callers.
func (uc *RideUC) transition(ctx context.Context, id uuid.UUID, to models.RideStatus) (*models.Ride, error) {
	ride, err := uc.repo.GetRideByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := ride.Status
	if from.Terminal() {
		return nil, apperr.New(apperr.CodeInvalidRideStatus,
			fmt.Sprintf("ride is already %s", from))
	}
	if !transitionAllowed(from, to) {
		return nil, apperr.New(apperr.CodeInvalidTransition,
			fmt.Sprintf("cannot move ride from %s to %s", from, to))
	}

	won, err := uc.repo.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !won {
		// a concurrent writer moved the ride first
		return nil, apperr.New(apperr.CodeInvalidTransition,
			fmt.Sprintf("ride left %s before the transition applied", from))
	}

	observability.TransitionsTotal.WithLabelValues(string(to)).Inc()
	uc.emitStatusChanged(id, from, to)

	ride.Status = to
	now := time.Now()
	ride.UpdatedAt = now
	if to == models.RideStatusCompleted {
		ride.CompletedAt = &now
	}
	return ride, nil
}

// CancelRide cancels a ride on behalf of the rider or the driver.
//
// Rider cancellations charge the stage-appropriate fee and free the driver.
// Driver cancellations are free for the rider and trigger a re-dispatch that
// excludes the cancelling driver.
func (uc *RideUC) CancelRide(ctx context.Context, id uuid.UUID, cancelledBy, reason string, explicitFee float64) (*models.Ride, error) {
	ride, err := uc.repo.GetRideByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := ride.Status
	if from.Terminal() {
		return nil, apperr.New(apperr.CodeInvalidRideStatus,
			fmt.Sprintf("ride is already %s", from))
	}

	byDriver := cancelledBy == CancelledByDriver
	to := models.RideStatusCancelled
	var fee float64
	if byDriver {
		to = models.RideStatusDriverCancelled
	} else {
		var price float64
		if ride.Pricing != nil {
			price = ride.Pricing.Total
		}
		fee = uc.calc.CancellationFee(from, price, explicitFee)
	}

	won, err := uc.repo.CancelRide(ctx, id, from, to, reason, fee)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.New(apperr.CodeInvalidTransition,
			fmt.Sprintf("ride left %s before the cancellation applied", from))
	}

	observability.TransitionsTotal.WithLabelValues(string(to)).Inc()
	uc.emitStatusChanged(id, from, to)

	if ride.DriverID != "" {
		if byDriver {
			// the cancelling driver stays out of the pool until they go
			// online again
			if err := uc.pool.UpdateDriverStatus(ctx, ride.DriverID, models.DriverStatusOnline); err != nil {
				logger.Warn("failed to update cancelling driver status",
					logger.String("driver_id", ride.DriverID),
					logger.Err(err))
			}
		} else {
			uc.releaseQuietly(ctx, ride.DriverID)
		}
	}

	if byDriver {
		event := models.RedispatchEvent{
			RideID:           id.String(),
			ExcludedDriverID: ride.DriverID,
			Timestamp:        time.Now(),
		}
		if err := uc.gw.PublishRedispatch(event); err != nil {
			logger.Error("failed to publish redispatch request",
				logger.String("ride_id", event.RideID),
				logger.Err(err))
		}
	}

	now := time.Now()
	ride.Status = to
	ride.CancellationReason = reason
	ride.CancellationFee = fee
	ride.CancelledAt = &now
	ride.UpdatedAt = now

	logger.Info("ride cancelled",
		logger.String("ride_id", id.String()),
		logger.String("cancelled_by", cancelledBy),
		logger.String("from_status", string(from)),
		logger.Float64("fee", fee))

	return ride, nil
}

// Redispatch finds a replacement driver for a driver-cancelled ride.
func (uc *RideUC) Redispatch(ctx context.Context, event models.RedispatchEvent) error {
	rideID, err := uuid.Parse(event.RideID)
	if err != nil {
		return apperr.Wrap(apperr.CodeMissingRequiredFields, "invalid ride id in redispatch request", err)
	}

	ride, err := uc.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.Status != models.RideStatusDriverCancelled {
		// already reassigned or the rider cancelled in the meantime
		return nil
	}

	// the replacement search must honor the original booking's constraints
	passengers := ride.PassengerCount
	if passengers == 0 {
		passengers = 1
	}
	req := models.RideRequest{
		RiderID:             ride.RiderID,
		Pickup:              ride.Pickup,
		Destination:         ride.Destination,
		RideOptionID:        ride.RideOptionID,
		PassengerCount:      passengers,
		SpecialRequirements: ride.SpecialRequirements,
		Preferences:         ride.Preferences,
	}

	result, err := uc.matcher.MatchExcluding(ctx, req, event.ExcludedDriverID)
	if err != nil {
		return err
	}
	if !result.Success {
		logger.Warn("no replacement driver available",
			logger.String("ride_id", event.RideID),
			logger.String("excluded_driver_id", event.ExcludedDriverID))
		return nil
	}

	winner, ok := uc.reserveFirst(ctx, result)
	if !ok {
		logger.Warn("replacement candidates claimed before reservation",
			logger.String("ride_id", event.RideID))
		return nil
	}

	won, err := uc.repo.ReassignDriver(ctx, rideID, winner.Driver.ID)
	if err != nil {
		uc.releaseQuietly(ctx, winner.Driver.ID)
		return err
	}
	if !won {
		uc.releaseQuietly(ctx, winner.Driver.ID)
		return nil
	}

	observability.TransitionsTotal.WithLabelValues(string(models.RideStatusConfirmed)).Inc()
	uc.emitStatusChanged(rideID, models.RideStatusDriverCancelled, models.RideStatusConfirmed)

	logger.Info("ride reassigned",
		logger.String("ride_id", event.RideID),
		logger.String("driver_id", winner.Driver.ID))
	return nil
}
