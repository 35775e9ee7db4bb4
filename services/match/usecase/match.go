package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/geo"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/internal/pkg/observability"
	"github.com/danisworo/jalur/services/match"
	"github.com/danisworo/jalur/services/pricing"
)

const maxPassengers = 8

// MatchUC ranks the driver pool against ride requests.
type MatchUC struct {
	cfg  models.MatchConfig
	pool match.DriverPoolRepo
}

// NewMatchUC creates a new matcher usecase
func NewMatchUC(cfg models.MatchConfig, pool match.DriverPoolRepo) *MatchUC {
	return &MatchUC{cfg: cfg, pool: pool}
}

// Match scores and ranks the pool against the request. An empty eligible pool
// yields a non-error result carrying alternative tier suggestions.
func (uc *MatchUC) Match(ctx context.Context, req models.RideRequest) (*models.MatchResult, error) {
	return uc.MatchExcluding(ctx, req, "")
}

// MatchExcluding behaves like Match but skips the given driver. Used for
// re-dispatch after a driver-side cancellation so the same driver is never
// offered the ride twice.
func (uc *MatchUC) MatchExcluding(ctx context.Context, req models.RideRequest, excludedDriverID string) (*models.MatchResult, error) {
	option, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	drivers, err := uc.pool.FindNearbyDrivers(ctx, req.Pickup, uc.cfg.SearchRadiusKm, uc.cfg.PoolLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver pool: %w", err)
	}

	matches := make([]models.DriverMatch, 0, len(drivers))
	for i := range drivers {
		d := drivers[i]
		if d.ID == excludedDriverID {
			continue
		}
		if !eligible(&d, option, req) {
			continue
		}

		c := &candidate{
			driver:            d,
			distanceMeters:    geo.Distance(req.Pickup, d.CurrentLocation),
			vehicleExactMatch: d.VehicleType == option.VehicleType,
		}
		score, reasons, drawbacks := scoreCandidate(c)

		matches = append(matches, models.DriverMatch{
			Driver:                  d,
			Score:                   score,
			DistanceMeters:          c.distanceMeters,
			EstimatedArrivalSeconds: geo.ETASeconds(c.distanceMeters, 0),
			Reasons:                 reasons,
			Drawbacks:               drawbacks,
			Confidence:              clampConfidence(score),
		})
	}

	if len(matches) == 0 {
		observability.MatchesTotal.WithLabelValues("no_drivers").Inc()
		logger.Info("no eligible drivers for request",
			logger.String("rider_id", req.RiderID),
			logger.String("ride_option", req.RideOptionID),
			logger.Int("pool_size", len(drivers)))
		return &models.MatchResult{
			Success:         false,
			ErrorCode:       apperr.CodeNoDriversAvailable,
			TierSuggestions: tierSuggestions(req.RideOptionID),
		}, nil
	}

	sortMatches(matches)

	best := matches[0]
	alternatives := matches[1:]
	if len(alternatives) > uc.cfg.MaxAlternatives {
		alternatives = alternatives[:uc.cfg.MaxAlternatives]
	}

	observability.MatchesTotal.WithLabelValues("matched").Inc()
	logger.Info("matched driver to request",
		logger.String("rider_id", req.RiderID),
		logger.String("driver_id", best.Driver.ID),
		logger.Float64("score", best.Score),
		logger.Float64("distance_m", best.DistanceMeters))

	return &models.MatchResult{
		Success:      true,
		Best:         &best,
		Alternatives: alternatives,
	}, nil
}

func validateRequest(req models.RideRequest) (models.RideOption, error) {
	if req.RiderID == "" || req.RideOptionID == "" {
		return models.RideOption{}, apperr.New(apperr.CodeMissingRequiredFields, "rider_id and ride_option_id are required")
	}
	if req.PassengerCount < 1 || req.PassengerCount > maxPassengers {
		return models.RideOption{}, apperr.New(apperr.CodeMissingRequiredFields, "passenger_count must be between 1 and 8")
	}
	if !req.Pickup.Valid() {
		return models.RideOption{}, apperr.New(apperr.CodeInvalidLocation, "pickup location is invalid")
	}
	if !req.Destination.Valid() {
		return models.RideOption{}, apperr.New(apperr.CodeInvalidLocation, "destination location is invalid")
	}

	option, ok := pricing.OptionByID(req.RideOptionID)
	if !ok {
		return models.RideOption{}, apperr.New(apperr.CodeMissingRequiredFields, "unknown ride option: "+req.RideOptionID)
	}
	return option, nil
}

// eligible applies the hard filters. Filter failures silently exclude the
// driver; they never surface as drawbacks.
func eligible(d *models.Driver, option models.RideOption, req models.RideRequest) bool {
	if !d.Dispatchable() {
		return false
	}
	if !vehicleCompatible(option.VehicleType, d.VehicleType) {
		return false
	}
	for _, requirement := range req.SpecialRequirements {
		if !d.HasCapability(requirement) {
			return false
		}
	}
	if req.Preferences != nil && req.Preferences.FemaleDriverOnly && !d.IsFemaleDriver {
		return false
	}
	return true
}

// sortMatches orders by score descending, breaking ties by pickup distance
// ascending, then rating descending.
func sortMatches(matches []models.DriverMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].Driver.Rating > matches[j].Driver.Rating
	})
}

func tierSuggestions(requestedOptionID string) []models.RideOptionSuggestion {
	alts := pricing.AlternativeOptions(requestedOptionID)
	suggestions := make([]models.RideOptionSuggestion, 0, len(alts))
	for _, opt := range alts {
		suggestions = append(suggestions, models.RideOptionSuggestion{
			Option:           opt,
			EstimatedWaitSec: opt.TypicalWaitSec,
			PriceMultiplier:  opt.PriceMultiplier,
		})
	}
	return suggestions
}
