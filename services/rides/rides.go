// Package rides owns the ride lifecycle: booking, status transitions,
// cancellation and history.
package rides

import (
	"context"

	"github.com/google/uuid"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// EstimateRequest carries the inputs for an up-front fare quote.
type EstimateRequest struct {
	Pickup          models.Location `json:"pickup"`
	Destination     models.Location `json:"destination"`
	RideOptionID    string          `json:"ride_option_id"`
	SurgeMultiplier float64         `json:"surge_multiplier,omitempty"`
}

// Estimate is the fare quote returned before booking.
type Estimate struct {
	Fare            *models.FareBreakdown `json:"fare"`
	DistanceMeters  float64               `json:"distance_meters"`
	DurationSeconds int                   `json:"duration_seconds"`
	RideOptionID    string                `json:"ride_option_id"`
}

// RideRepo defines ride persistence. Status updates are compare-and-set:
// writers name the status they believe the ride is in, and the update reports
// whether it won.
type RideRepo interface {
	// CreateRide inserts a new ride row.
	CreateRide(ctx context.Context, ride *models.Ride) error
	// GetRideByID fetches a ride, returning RIDE_NOT_FOUND when absent.
	GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// GetActiveRideByRiderID returns the rider's non-terminal ride, or nil.
	GetActiveRideByRiderID(ctx context.Context, riderID string) (*models.Ride, error)
	// ListRidesByRider returns the rider's rides, most recent first.
	ListRidesByRider(ctx context.Context, riderID string, limit, offset int) ([]models.Ride, error)
	// TransitionStatus moves the ride from one status to another. Returns
	// false without error when the row was not in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error)
	// CancelRide moves the ride to a terminal cancel status, recording the
	// reason and fee. Same compare-and-set semantics as TransitionStatus.
	CancelRide(ctx context.Context, id uuid.UUID, from, to models.RideStatus, reason string, fee float64) (bool, error)
	// ReassignDriver points a ride at a replacement driver and returns it to
	// the confirmed status.
	ReassignDriver(ctx context.Context, id uuid.UUID, driverID string) (bool, error)
	// UpdatePricing overwrites the stored fare breakdown.
	UpdatePricing(ctx context.Context, id uuid.UUID, fare *models.FareBreakdown) error
}

// RideGW publishes ride domain events. Delivery is fire-and-forget.
type RideGW interface {
	PublishStatusChanged(event models.RideStatusEvent) error
	PublishRedispatch(event models.RedispatchEvent) error
}

// RideUC defines the ride lifecycle business logic.
type RideUC interface {
	// EstimateFare quotes a fare without touching the driver pool.
	EstimateFare(ctx context.Context, req EstimateRequest) (*Estimate, error)
	// BookRide matches a driver, reserves them and creates the ride. The
	// returned match result is populated even when no driver was found.
	BookRide(ctx context.Context, req models.RideRequest) (*models.Ride, *models.MatchResult, error)
	// GetRide fetches a single ride.
	GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// ListHistory returns a rider's rides, most recent first.
	ListHistory(ctx context.Context, riderID string, limit, offset int) ([]models.Ride, error)
	// CancelRide cancels on behalf of the rider or driver, charging the
	// stage-appropriate fee. Driver cancellations trigger re-dispatch.
	CancelRide(ctx context.Context, id uuid.UUID, cancelledBy, reason string, explicitFee float64) (*models.Ride, error)
	// MarkArriving records the driver heading to the pickup point.
	MarkArriving(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// MarkArrived records driver arrival at the pickup point.
	MarkArrived(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// MarkInProgress records the ride starting.
	MarkInProgress(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// MarkCompleted records the ride finishing.
	MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// Redispatch finds a replacement driver for a driver-cancelled ride.
	Redispatch(ctx context.Context, event models.RedispatchEvent) error
}
