package repository_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/rides/repository"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	return db, mock
}

func rideColumns() []string {
	return []string{
		"id", "rider_id", "driver_id",
		"pickup_latitude", "pickup_longitude", "pickup_address",
		"dropoff_latitude", "dropoff_longitude", "dropoff_address",
		"ride_option_id", "passenger_count", "special_requirements", "female_driver_only", "status",
		"base_fare", "distance_fare", "time_fare", "surge_fare",
		"tolls", "tip", "tax", "total", "currency",
		"estimated_duration_sec", "estimated_distance_m",
		"cancellation_reason", "cancellation_fee",
		"created_at", "confirmed_at", "cancelled_at", "completed_at", "updated_at",
	}
}

func rideRow(id uuid.UUID, status models.RideStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "rider-1", "driver-1",
		40.7128, -74.0060, "1 liberty plaza",
		40.7527, -73.9772, "grand central",
		"standard", 2, "wheelchair_accessible", true, string(status),
		2.50, 12.50, 7.00, 0.0,
		0.0, 0.0, 1.76, 23.76, "USD",
		1200, 6200.0,
		"", 0.0,
		now, nil, nil, nil, now,
	}
}

func TestCreateRide_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	ride := &models.Ride{
		ID:           uuid.New(),
		RiderID:      "rider-1",
		DriverID:     "driver-1",
		Pickup:       models.Location{Latitude: 40.7128, Longitude: -74.0060, Address: "1 liberty plaza"},
		Destination:  models.Location{Latitude: 40.7527, Longitude: -73.9772, Address: "grand central"},
		RideOptionID: "standard",
		Status:       models.RideStatusConfirmed,
		Pricing:      &models.FareBreakdown{Total: 23.76, Currency: "USD"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rides")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRide(context.Background(), ride)
	assert.NoError(t, err)
	assert.NotNil(t, ride.ConfirmedAt)
	assert.False(t, ride.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRideByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM rides WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(rideColumns()))

	_, err := repo.GetRideByID(context.Background(), id)
	assert.Equal(t, apperr.CodeRideNotFound, apperr.CodeOf(err))
}

func TestGetRideByID_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM rides WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(rideColumns()).AddRow(rideRow(id, models.RideStatusConfirmed)...))

	ride, err := repo.GetRideByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, ride.ID)
	assert.Equal(t, models.RideStatusConfirmed, ride.Status)
	assert.Equal(t, 23.76, ride.Pricing.Total)
	assert.Equal(t, "grand central", ride.Destination.Address)
	assert.Equal(t, 2, ride.PassengerCount)
	assert.Equal(t, []string{"wheelchair_accessible"}, ride.SpecialRequirements)
	require.NotNil(t, ride.Preferences)
	assert.True(t, ride.Preferences.FemaleDriverOnly)
}

func TestGetActiveRideByRiderID_NoneIsNotAnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM rides")).
		WithArgs("rider-1").
		WillReturnRows(sqlmock.NewRows(rideColumns()))

	ride, err := repo.GetActiveRideByRiderID(context.Background(), "rider-1")
	assert.NoError(t, err)
	assert.Nil(t, ride)
}

func TestTransitionStatus_CASLoss(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.TransitionStatus(context.Background(), id, models.RideStatusArrived, models.RideStatusInProgress)
	assert.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_CASWin(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.TransitionStatus(context.Background(), id, models.RideStatusConfirmed, models.RideStatusArriving)
	assert.NoError(t, err)
	assert.True(t, won)
}

func TestCancelRide_RecordsReasonAndFee(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
		WithArgs(string(models.RideStatusCancelled), "rider changed plans", 2.50,
			sqlmock.AnyArg(), id, string(models.RideStatusConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.CancelRide(context.Background(), id,
		models.RideStatusConfirmed, models.RideStatusCancelled, "rider changed plans", 2.50)
	assert.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRidesByRider_ClampsLimit(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewRideRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM rides")).
		WithArgs("rider-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(rideColumns()).AddRow(rideRow(id, models.RideStatusCompleted)...))

	rides, err := repo.ListRidesByRider(context.Background(), "rider-1", -5, -1)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, id, rides[0].ID)
}
