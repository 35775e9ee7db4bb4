package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/danisworo/jalur/internal/pkg/constants"
	"github.com/danisworo/jalur/internal/pkg/database"
	"github.com/danisworo/jalur/internal/pkg/geo"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
)

// regionCellPrecision is the geohash precision stored with each driver for
// region-level grouping, roughly 1.2km x 0.6km cells.
const regionCellPrecision = 6

// DriverPoolRepo implements the driver pool over Redis: a GEO set for
// positions, a plain set for availability, and a hash per driver for
// metadata.
type DriverPoolRepo struct {
	redisClient *database.RedisClient
}

// NewDriverPoolRepository creates a new driver pool repository
func NewDriverPoolRepository(redisClient *database.RedisClient) *DriverPoolRepo {
	return &DriverPoolRepo{redisClient: redisClient}
}

// UpsertDriver writes the driver's position and metadata into the pool.
// Dispatchable drivers are added to the availability set; everyone else is
// removed from it.
func (r *DriverPoolRepo) UpsertDriver(ctx context.Context, driver *models.Driver) error {
	if err := r.redisClient.GeoAdd(ctx, constants.KeyDriverGeo, &redis.GeoLocation{
		Name:      driver.ID,
		Latitude:  driver.CurrentLocation.Latitude,
		Longitude: driver.CurrentLocation.Longitude,
	}); err != nil {
		return fmt.Errorf("failed to index driver position: %w", err)
	}

	metaKey := fmt.Sprintf(constants.KeyDriverMeta, driver.ID)
	meta := map[string]interface{}{
		constants.FieldRating:          strconv.FormatFloat(driver.Rating, 'f', -1, 64),
		constants.FieldCompletedRides:  strconv.Itoa(driver.CompletedRides),
		constants.FieldAcceptanceRate:  strconv.FormatFloat(driver.AcceptanceRate, 'f', -1, 64),
		constants.FieldVehicleType:     string(driver.VehicleType),
		constants.FieldStatus:          string(driver.Status),
		constants.FieldVerified:        strconv.FormatBool(driver.IsVerified),
		constants.FieldBackgroundCheck: strconv.FormatBool(driver.BackgroundCheckPassed),
		constants.FieldInsurance:       strconv.FormatBool(driver.InsuranceVerified),
		constants.FieldCapabilities:    strings.Join(driver.Capabilities, ","),
		constants.FieldFemaleDriver:    strconv.FormatBool(driver.IsFemaleDriver),
		constants.FieldAddress:         driver.CurrentLocation.Address,
		constants.FieldCell:            geo.EncodeCell(driver.CurrentLocation, regionCellPrecision),
		constants.FieldUpdatedAt:       strconv.FormatInt(time.Now().Unix(), 10),
	}
	if err := r.redisClient.HSet(ctx, metaKey, meta); err != nil {
		return fmt.Errorf("failed to store driver metadata: %w", err)
	}

	if driver.Dispatchable() {
		if err := r.redisClient.SAdd(ctx, constants.KeyAvailableDrivers, driver.ID); err != nil {
			return fmt.Errorf("failed to mark driver available: %w", err)
		}
	} else {
		if _, err := r.redisClient.SRem(ctx, constants.KeyAvailableDrivers, driver.ID); err != nil {
			return fmt.Errorf("failed to remove driver availability: %w", err)
		}
	}

	return nil
}

// FindNearbyDrivers returns driver snapshots within radiusKm of loc,
// hydrated from the per-driver metadata hashes.
func (r *DriverPoolRepo) FindNearbyDrivers(ctx context.Context, loc models.Location, radiusKm float64, limit int) ([]models.Driver, error) {
	locations, err := r.redisClient.GeoRadius(ctx, constants.KeyDriverGeo, loc.Longitude, loc.Latitude, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Count:     limit,
		Sort:      "ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query driver geo index: %w", err)
	}

	drivers := make([]models.Driver, 0, len(locations))
	for _, gl := range locations {
		driver, err := r.hydrateDriver(ctx, gl)
		if err != nil {
			logger.Warn("skipping driver with unreadable metadata",
				logger.String("driver_id", gl.Name),
				logger.Err(err))
			continue
		}
		drivers = append(drivers, *driver)
	}

	return drivers, nil
}

func (r *DriverPoolRepo) hydrateDriver(ctx context.Context, gl redis.GeoLocation) (*models.Driver, error) {
	metaKey := fmt.Sprintf(constants.KeyDriverMeta, gl.Name)
	meta, err := r.redisClient.HGetAll(ctx, metaKey)
	if err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("no metadata for driver %s", gl.Name)
	}

	rating, _ := strconv.ParseFloat(meta[constants.FieldRating], 64)
	completed, _ := strconv.Atoi(meta[constants.FieldCompletedRides])
	acceptance, _ := strconv.ParseFloat(meta[constants.FieldAcceptanceRate], 64)
	verified, _ := strconv.ParseBool(meta[constants.FieldVerified])
	background, _ := strconv.ParseBool(meta[constants.FieldBackgroundCheck])
	insurance, _ := strconv.ParseBool(meta[constants.FieldInsurance])
	female, _ := strconv.ParseBool(meta[constants.FieldFemaleDriver])

	var capabilities []string
	if raw := meta[constants.FieldCapabilities]; raw != "" {
		capabilities = strings.Split(raw, ",")
	}

	return &models.Driver{
		ID:             gl.Name,
		Rating:         rating,
		CompletedRides: completed,
		AcceptanceRate: acceptance,
		CurrentLocation: models.Location{
			Latitude:  gl.Latitude,
			Longitude: gl.Longitude,
			Address:   meta[constants.FieldAddress],
		},
		VehicleType:           models.VehicleType(meta[constants.FieldVehicleType]),
		Status:                models.DriverStatus(meta[constants.FieldStatus]),
		IsVerified:            verified,
		BackgroundCheckPassed: background,
		InsuranceVerified:     insurance,
		Capabilities:          capabilities,
		IsFemaleDriver:        female,
	}, nil
}

// ReserveDriver atomically claims the driver for a dispatch. SREM returns
// the number of members removed, so exactly one concurrent caller wins.
func (r *DriverPoolRepo) ReserveDriver(ctx context.Context, driverID string) (bool, error) {
	removed, err := r.redisClient.SRem(ctx, constants.KeyAvailableDrivers, driverID)
	if err != nil {
		return false, fmt.Errorf("failed to reserve driver: %w", err)
	}
	if removed == 0 {
		return false, nil
	}

	if err := r.UpdateDriverStatus(ctx, driverID, models.DriverStatusEnRoute); err != nil {
		// claim succeeded but the status write failed; undo the claim
		_ = r.redisClient.SAdd(ctx, constants.KeyAvailableDrivers, driverID)
		return false, err
	}
	return true, nil
}

// ReleaseDriver returns the driver to the available pool as online.
func (r *DriverPoolRepo) ReleaseDriver(ctx context.Context, driverID string) error {
	if err := r.UpdateDriverStatus(ctx, driverID, models.DriverStatusOnline); err != nil {
		return err
	}
	if err := r.redisClient.SAdd(ctx, constants.KeyAvailableDrivers, driverID); err != nil {
		return fmt.Errorf("failed to mark driver available: %w", err)
	}
	return nil
}

// UpdateDriverStatus records a driver status change in the metadata hash.
func (r *DriverPoolRepo) UpdateDriverStatus(ctx context.Context, driverID string, status models.DriverStatus) error {
	metaKey := fmt.Sprintf(constants.KeyDriverMeta, driverID)
	err := r.redisClient.HSet(ctx, metaKey, map[string]interface{}{
		constants.FieldStatus:    string(status),
		constants.FieldUpdatedAt: strconv.FormatInt(time.Now().Unix(), 10),
	})
	if err != nil {
		return fmt.Errorf("failed to update driver status: %w", err)
	}
	return nil
}
