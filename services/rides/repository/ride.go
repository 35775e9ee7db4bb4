// Package repository persists rides in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmoiron/sqlx"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/models"
)

// RideRepo implements ride persistence over PostgreSQL
type RideRepo struct {
	db *sqlx.DB
}

// NewRideRepository creates a new ride repository
func NewRideRepository(db *sqlx.DB) *RideRepo {
	return &RideRepo{db: db}
}

const insertRideQuery = `
	INSERT INTO rides (
		id, rider_id, driver_id,
		pickup_latitude, pickup_longitude, pickup_address,
		dropoff_latitude, dropoff_longitude, dropoff_address,
		ride_option_id, passenger_count, special_requirements, female_driver_only, status,
		base_fare, distance_fare, time_fare, surge_fare, tolls, tip, tax, total, currency,
		estimated_duration_sec, estimated_distance_m,
		cancellation_reason, cancellation_fee,
		created_at, confirmed_at, cancelled_at, completed_at, updated_at
	) VALUES (
		:id, :rider_id, :driver_id,
		:pickup_latitude, :pickup_longitude, :pickup_address,
		:dropoff_latitude, :dropoff_longitude, :dropoff_address,
		:ride_option_id, :passenger_count, :special_requirements, :female_driver_only, :status,
		:base_fare, :distance_fare, :time_fare, :surge_fare, :tolls, :tip, :tax, :total, :currency,
		:estimated_duration_sec, :estimated_distance_m,
		:cancellation_reason, :cancellation_fee,
		:created_at, :confirmed_at, :cancelled_at, :completed_at, :updated_at
	)`

// CreateRide inserts a new ride row, stamping created/updated timestamps.
func (r *RideRepo) CreateRide(ctx context.Context, ride *models.Ride) error {
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	if ride.Status == models.RideStatusConfirmed && ride.ConfirmedAt == nil {
		ride.ConfirmedAt = &now
	}

	dto := ride.ToDTO()
	if _, err := r.db.NamedExecContext(ctx, insertRideQuery, dto); err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

// GetRideByID fetches a single ride.
func (r *RideRepo) GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var dto models.RideDTO
	err := r.db.GetContext(ctx, &dto, `SELECT * FROM rides WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeRideNotFound, "ride not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return dto.ToRide(), nil
}

// GetActiveRideByRiderID returns the rider's non-terminal ride, or nil when
// the rider has none.
func (r *RideRepo) GetActiveRideByRiderID(ctx context.Context, riderID string) (*models.Ride, error) {
	var dto models.RideDTO
	err := r.db.GetContext(ctx, &dto,
		`SELECT * FROM rides
		 WHERE rider_id = $1
		   AND status NOT IN ('completed', 'cancelled', 'driver_cancelled')
		 ORDER BY created_at DESC
		 LIMIT 1`, riderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active ride: %w", err)
	}
	return dto.ToRide(), nil
}

// ListRidesByRider returns the rider's rides, most recent first.
func (r *RideRepo) ListRidesByRider(ctx context.Context, riderID string, limit, offset int) ([]models.Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var dtos []models.RideDTO
	err := r.db.SelectContext(ctx, &dtos,
		`SELECT * FROM rides
		 WHERE rider_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, riderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}

	rides := make([]models.Ride, 0, len(dtos))
	for i := range dtos {
		rides = append(rides, *dtos[i].ToRide())
	}
	return rides, nil
}

// TransitionStatus moves the ride between statuses with a compare-and-set on
// the current status, so concurrent writers cannot double-apply a transition.
func (r *RideRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error) {
	query := `UPDATE rides SET status = $1, updated_at = $2`
	args := []interface{}{to, time.Now()}

	switch to {
	case models.RideStatusConfirmed:
		query += `, confirmed_at = $2`
	case models.RideStatusCompleted:
		query += `, completed_at = $2`
	}

	query += ` WHERE id = $3 AND status = $4`
	args = append(args, id, from)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update ride status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows == 1, nil
}

// CancelRide moves the ride to a terminal cancel status, recording the reason
// and fee. Same compare-and-set semantics as TransitionStatus.
func (r *RideRepo) CancelRide(ctx context.Context, id uuid.UUID, from, to models.RideStatus, reason string, fee float64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rides
		 SET status = $1, cancellation_reason = $2, cancellation_fee = $3,
		     cancelled_at = $4, updated_at = $4
		 WHERE id = $5 AND status = $6`,
		to, reason, fee, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to cancel ride: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows == 1, nil
}

// ReassignDriver points a driver-cancelled ride at a replacement driver and
// returns it to confirmed.
func (r *RideRepo) ReassignDriver(ctx context.Context, id uuid.UUID, driverID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rides
		 SET driver_id = $1, status = $2, cancellation_reason = '', cancellation_fee = 0,
		     cancelled_at = NULL, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		driverID, models.RideStatusConfirmed, time.Now(), id, models.RideStatusDriverCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to reassign driver: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdatePricing overwrites the stored fare breakdown.
func (r *RideRepo) UpdatePricing(ctx context.Context, id uuid.UUID, fare *models.FareBreakdown) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE rides
		 SET base_fare = $1, distance_fare = $2, time_fare = $3, surge_fare = $4,
		     tolls = $5, tip = $6, tax = $7, total = $8, currency = $9, updated_at = $10
		 WHERE id = $11`,
		fare.Base, fare.DistanceFare, fare.TimeFare, fare.SurgeFare,
		fare.Tolls, fare.Tip, fare.Tax, fare.Total, fare.Currency, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update ride pricing: %w", err)
	}
	return nil
}
