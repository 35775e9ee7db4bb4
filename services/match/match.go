// Package match ranks the driver pool against ride requests.
package match

import (
	"context"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// DriverPoolRepo defines driver pool access. The pool is a read-mostly
// snapshot; the only writes this engine performs are the status flips on
// assignment and release.
type DriverPoolRepo interface {
	// FindNearbyDrivers returns drivers within radiusKm of the location.
	FindNearbyDrivers(ctx context.Context, loc models.Location, radiusKm float64, limit int) ([]models.Driver, error)
	// ReserveDriver atomically removes the driver from the available pool.
	// Returns false when another dispatch already claimed the driver.
	ReserveDriver(ctx context.Context, driverID string) (bool, error)
	// ReleaseDriver returns the driver to the available pool as online.
	ReleaseDriver(ctx context.Context, driverID string) error
	// UpdateDriverStatus records a driver status change.
	UpdateDriverStatus(ctx context.Context, driverID string, status models.DriverStatus) error
	// UpsertDriver writes a full driver snapshot into the pool index.
	UpsertDriver(ctx context.Context, driver *models.Driver) error
}

// MatchUC defines the matcher business logic
type MatchUC interface {
	// Match scores and ranks the pool against the request. An empty eligible
	// pool yields a non-error result carrying tier suggestions.
	Match(ctx context.Context, req models.RideRequest) (*models.MatchResult, error)
	// MatchExcluding behaves like Match but skips the given driver; used for
	// re-dispatch after a driver-side cancellation.
	MatchExcluding(ctx context.Context, req models.RideRequest, excludedDriverID string) (*models.MatchResult, error)
}
