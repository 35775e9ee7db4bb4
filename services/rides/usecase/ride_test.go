package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/pricing"
	"github.com/danisworo/jalur/services/rides"
)

// fakeRideRepo is an in-memory RideRepo with real compare-and-set semantics.
type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (f *fakeRideRepo) CreateRide(_ context.Context, ride *models.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *ride
	f.rides[ride.ID] = &copied
	return nil
}

func (f *fakeRideRepo) GetRideByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, apperr.New(apperr.CodeRideNotFound, "ride not found")
	}
	copied := *ride
	return &copied, nil
}

func (f *fakeRideRepo) GetActiveRideByRiderID(_ context.Context, riderID string) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ride := range f.rides {
		if ride.RiderID == riderID && !ride.Status.Terminal() {
			copied := *ride
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRideRepo) ListRidesByRider(_ context.Context, riderID string, _, _ int) ([]models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Ride
	for _, ride := range f.rides {
		if ride.RiderID == riderID {
			out = append(out, *ride)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok || ride.Status != from {
		return false, nil
	}
	ride.Status = to
	return true, nil
}

func (f *fakeRideRepo) CancelRide(_ context.Context, id uuid.UUID, from, to models.RideStatus, reason string, fee float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok || ride.Status != from {
		return false, nil
	}
	ride.Status = to
	ride.CancellationReason = reason
	ride.CancellationFee = fee
	return true, nil
}

func (f *fakeRideRepo) ReassignDriver(_ context.Context, id uuid.UUID, driverID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok || ride.Status != models.RideStatusDriverCancelled {
		return false, nil
	}
	ride.Status = models.RideStatusConfirmed
	ride.DriverID = driverID
	return true, nil
}

func (f *fakeRideRepo) UpdatePricing(_ context.Context, id uuid.UUID, fare *models.FareBreakdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ride, ok := f.rides[id]; ok {
		ride.Pricing = fare
	}
	return nil
}

// fakeGW records published events.
type fakeGW struct {
	mu          sync.Mutex
	redispatch  []models.RedispatchEvent
	statusCount int
}

func (f *fakeGW) PublishStatusChanged(_ models.RideStatusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCount++
	return nil
}

func (f *fakeGW) PublishRedispatch(event models.RedispatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redispatch = append(f.redispatch, event)
	return nil
}

func (f *fakeGW) redispatchEvents() []models.RedispatchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RedispatchEvent(nil), f.redispatch...)
}

// fakeMatcher returns a canned result and records the request it was given.
type fakeMatcher struct {
	result   *models.MatchResult
	lastReq  models.RideRequest
	excluded string
}

func (f *fakeMatcher) Match(_ context.Context, req models.RideRequest) (*models.MatchResult, error) {
	f.lastReq = req
	return f.result, nil
}

func (f *fakeMatcher) MatchExcluding(_ context.Context, req models.RideRequest, excludedDriverID string) (*models.MatchResult, error) {
	f.lastReq = req
	f.excluded = excludedDriverID
	return f.result, nil
}

// fakeDriverPool tracks reservations.
type fakeDriverPool struct {
	mu        sync.Mutex
	available map[string]bool
	statuses  map[string]models.DriverStatus
}

func newFakeDriverPool(driverIDs ...string) *fakeDriverPool {
	p := &fakeDriverPool{available: make(map[string]bool), statuses: make(map[string]models.DriverStatus)}
	for _, id := range driverIDs {
		p.available[id] = true
		p.statuses[id] = models.DriverStatusOnline
	}
	return p
}

func (f *fakeDriverPool) FindNearbyDrivers(_ context.Context, _ models.Location, _ float64, _ int) ([]models.Driver, error) {
	return nil, nil
}

func (f *fakeDriverPool) ReserveDriver(_ context.Context, driverID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available[driverID] {
		return false, nil
	}
	f.available[driverID] = false
	f.statuses[driverID] = models.DriverStatusEnRoute
	return true, nil
}

func (f *fakeDriverPool) ReleaseDriver(_ context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available[driverID] = true
	f.statuses[driverID] = models.DriverStatusOnline
	return nil
}

func (f *fakeDriverPool) UpdateDriverStatus(_ context.Context, driverID string, status models.DriverStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[driverID] = status
	return nil
}

func (f *fakeDriverPool) UpsertDriver(_ context.Context, _ *models.Driver) error { return nil }

func (f *fakeDriverPool) isAvailable(driverID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[driverID]
}

func pricingConfig() models.PricingConfig {
	return models.PricingConfig{
		BaseFare:           2.50,
		PerKmRate:          1.25,
		PerMinuteRate:      0.35,
		TaxRate:            0.08,
		Currency:           "USD",
		CancelFeeConfirmed: 2.50,
		CancelFeeAccepted:  2.50,
		CancelFeeArrived:   5.00,
		AvgSpeedKmh:        25,
	}
}

func matchFor(driverIDs ...string) *fakeMatcher {
	matches := make([]models.DriverMatch, 0, len(driverIDs))
	for _, id := range driverIDs {
		matches = append(matches, models.DriverMatch{
			Driver: models.Driver{ID: id, Status: models.DriverStatusOnline},
			Score:  120,
		})
	}
	result := &models.MatchResult{Success: true, Best: &matches[0]}
	if len(matches) > 1 {
		result.Alternatives = matches[1:]
	}
	return &fakeMatcher{result: result}
}

func newTestUC(repo *fakeRideRepo, gw *fakeGW, matcher *fakeMatcher, pool *fakeDriverPool) *RideUC {
	cfg := pricingConfig()
	return NewRideUC(cfg, repo, gw, matcher, pool, pricing.NewCalculator(cfg))
}

func bookRequest() models.RideRequest {
	return models.RideRequest{
		RiderID:        "rider-1",
		Pickup:         models.Location{Latitude: 40.7128, Longitude: -74.0060, Address: "1 liberty plaza"},
		Destination:    models.Location{Latitude: 40.7527, Longitude: -73.9772, Address: "grand central"},
		RideOptionID:   "standard",
		PassengerCount: 1,
	}
}

func seedRide(repo *fakeRideRepo, status models.RideStatus) *models.Ride {
	ride := &models.Ride{
		ID:           uuid.New(),
		RiderID:      "rider-1",
		DriverID:     "driver-1",
		Pickup:       models.Location{Latitude: 40.7128, Longitude: -74.0060, Address: "a"},
		Destination:  models.Location{Latitude: 40.7527, Longitude: -73.9772, Address: "b"},
		RideOptionID: "standard",
		Status:       status,
		Pricing:      &models.FareBreakdown{Total: 40.00, Currency: "USD"},
	}
	_ = repo.CreateRide(context.Background(), ride)
	return ride
}

func TestBookRide_HappyPath(t *testing.T) {
	repo := newFakeRideRepo()
	pool := newFakeDriverPool("driver-1")
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), pool)

	ride, result, err := uc.BookRide(context.Background(), bookRequest())
	require.NoError(t, err)
	require.NotNil(t, ride)
	require.True(t, result.Success)

	assert.Equal(t, models.RideStatusConfirmed, ride.Status)
	assert.Equal(t, "driver-1", ride.DriverID)
	assert.Greater(t, ride.Pricing.Total, 0.0)
	assert.Greater(t, ride.EstimatedDistanceMeters, 0.0)
	assert.False(t, pool.isAvailable("driver-1"))

	stored, err := repo.GetRideByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusConfirmed, stored.Status)
}

func TestBookRide_RejectsDoubleBooking(t *testing.T) {
	repo := newFakeRideRepo()
	seedRide(repo, models.RideStatusConfirmed)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-2"), newFakeDriverPool("driver-2"))

	_, _, err := uc.BookRide(context.Background(), bookRequest())
	assert.Equal(t, apperr.CodeActiveRideExists, apperr.CodeOf(err))
}

func TestBookRide_CompletedRideDoesNotBlockRebooking(t *testing.T) {
	repo := newFakeRideRepo()
	seedRide(repo, models.RideStatusCompleted)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-2"), newFakeDriverPool("driver-2"))

	ride, _, err := uc.BookRide(context.Background(), bookRequest())
	require.NoError(t, err)
	assert.NotNil(t, ride)
}

func TestBookRide_NoDriversReturnsResultWithoutRide(t *testing.T) {
	repo := newFakeRideRepo()
	matcher := &fakeMatcher{result: &models.MatchResult{
		Success:   false,
		ErrorCode: apperr.CodeNoDriversAvailable,
		TierSuggestions: []models.RideOptionSuggestion{
			{Option: models.RideOption{ID: "xl"}, EstimatedWaitSec: 360},
		},
	}}
	uc := newTestUC(repo, &fakeGW{}, matcher, newFakeDriverPool())

	ride, result, err := uc.BookRide(context.Background(), bookRequest())
	require.NoError(t, err)
	assert.Nil(t, ride)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.TierSuggestions)
}

func TestBookRide_FallsThroughToAlternativeWhenBestIsClaimed(t *testing.T) {
	repo := newFakeRideRepo()
	pool := newFakeDriverPool("driver-2")
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1", "driver-2"), pool)

	ride, _, err := uc.BookRide(context.Background(), bookRequest())
	require.NoError(t, err)
	assert.Equal(t, "driver-2", ride.DriverID)
}

func TestTransition_FullForwardSequence(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusConfirmed)
	pool := newFakeDriverPool("driver-1")
	pool.available["driver-1"] = false
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), pool)

	arrived, err := uc.MarkArrived(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusArrived, arrived.Status)

	started, err := uc.MarkInProgress(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusInProgress, started.Status)

	completed, err := uc.MarkCompleted(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.True(t, pool.isAvailable("driver-1"))
}

func TestTransition_SkippingStagesRejected(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusConfirmed)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	_, err := uc.MarkInProgress(context.Background(), ride.ID)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = uc.MarkCompleted(context.Background(), ride.ID)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestTransition_TerminalRideRejected(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusCompleted)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	_, err := uc.MarkArrived(context.Background(), ride.ID)
	assert.Equal(t, apperr.CodeInvalidRideStatus, apperr.CodeOf(err))
}

func TestTransition_UnknownRide(t *testing.T) {
	uc := newTestUC(newFakeRideRepo(), &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	_, err := uc.MarkArrived(context.Background(), uuid.New())
	assert.Equal(t, apperr.CodeRideNotFound, apperr.CodeOf(err))
}

func TestCancelRide_FeeByStage(t *testing.T) {
	cases := []struct {
		status models.RideStatus
		fee    float64
	}{
		{models.RideStatusPending, 0},
		{models.RideStatusConfirmed, 2.50},
		{models.RideStatusArrived, 5.00},
		{models.RideStatusInProgress, 40.00},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			repo := newFakeRideRepo()
			ride := seedRide(repo, tc.status)
			pool := newFakeDriverPool("driver-1")
			pool.available["driver-1"] = false
			uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), pool)

			cancelled, err := uc.CancelRide(context.Background(), ride.ID, "rider", "changed plans", 0)
			require.NoError(t, err)
			assert.Equal(t, models.RideStatusCancelled, cancelled.Status)
			assert.Equal(t, tc.fee, cancelled.CancellationFee)
			assert.True(t, pool.isAvailable("driver-1"))
		})
	}
}

func TestCancelRide_ExplicitFeeOverrides(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusArrived)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), newFakeDriverPool("driver-1"))

	cancelled, err := uc.CancelRide(context.Background(), ride.ID, "rider", "ops override", 7.25)
	require.NoError(t, err)
	assert.Equal(t, 7.25, cancelled.CancellationFee)
}

func TestCancelRide_ByDriverTriggersRedispatch(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusConfirmed)
	gw := &fakeGW{}
	uc := newTestUC(repo, gw, matchFor("driver-1"), newFakeDriverPool("driver-1"))

	cancelled, err := uc.CancelRide(context.Background(), ride.ID, CancelledByDriver, "vehicle issue", 0)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusDriverCancelled, cancelled.Status)
	assert.Equal(t, 0.0, cancelled.CancellationFee)

	events := gw.redispatchEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ride.ID.String(), events[0].RideID)
	assert.Equal(t, "driver-1", events[0].ExcludedDriverID)
}

func TestCancelRide_TerminalRejected(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusCancelled)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	_, err := uc.CancelRide(context.Background(), ride.ID, "rider", "again", 0)
	assert.Equal(t, apperr.CodeInvalidRideStatus, apperr.CodeOf(err))
}

func TestRedispatch_AssignsReplacementDriver(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusDriverCancelled)
	matcher := matchFor("driver-2")
	pool := newFakeDriverPool("driver-2")
	uc := newTestUC(repo, &fakeGW{}, matcher, pool)

	err := uc.Redispatch(context.Background(), models.RedispatchEvent{
		RideID:           ride.ID.String(),
		ExcludedDriverID: "driver-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "driver-1", matcher.excluded)

	updated, err := repo.GetRideByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusConfirmed, updated.Status)
	assert.Equal(t, "driver-2", updated.DriverID)
	assert.False(t, pool.isAvailable("driver-2"))
}

func TestRedispatch_IgnoresRidesNoLongerDriverCancelled(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusConfirmed)
	matcher := matchFor("driver-2")
	uc := newTestUC(repo, &fakeGW{}, matcher, newFakeDriverPool("driver-2"))

	err := uc.Redispatch(context.Background(), models.RedispatchEvent{
		RideID:           ride.ID.String(),
		ExcludedDriverID: "driver-1",
	})
	require.NoError(t, err)

	updated, _ := repo.GetRideByID(context.Background(), ride.ID)
	assert.Equal(t, "driver-1", updated.DriverID)
}

func TestRedispatch_CarriesBookingConstraints(t *testing.T) {
	repo := newFakeRideRepo()
	gw := &fakeGW{}
	matcher := matchFor("driver-1")
	pool := newFakeDriverPool("driver-1", "driver-2")
	uc := newTestUC(repo, gw, matcher, pool)

	req := bookRequest()
	req.PassengerCount = 3
	req.SpecialRequirements = []string{"wheelchair_accessible"}
	req.Preferences = &models.RidePreferences{FemaleDriverOnly: true}

	ride, result, err := uc.BookRide(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Success)

	_, err = uc.CancelRide(context.Background(), ride.ID, CancelledByDriver, "vehicle issue", 0)
	require.NoError(t, err)

	matcher.result = matchFor("driver-2").result
	events := gw.redispatchEvents()
	require.Len(t, events, 1)
	require.NoError(t, uc.Redispatch(context.Background(), events[0]))

	// the replacement search sees the same constraints the booking carried
	assert.Equal(t, 3, matcher.lastReq.PassengerCount)
	assert.Equal(t, []string{"wheelchair_accessible"}, matcher.lastReq.SpecialRequirements)
	require.NotNil(t, matcher.lastReq.Preferences)
	assert.True(t, matcher.lastReq.Preferences.FemaleDriverOnly)
	assert.Equal(t, "driver-1", matcher.excluded)

	updated, err := repo.GetRideByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusConfirmed, updated.Status)
	assert.Equal(t, "driver-2", updated.DriverID)
}

func TestTransition_EnRouteLegIsOptional(t *testing.T) {
	repo := newFakeRideRepo()
	ride := seedRide(repo, models.RideStatusConfirmed)
	uc := newTestUC(repo, &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	arriving, err := uc.MarkArriving(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusArriving, arriving.Status)

	arrived, err := uc.MarkArrived(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusArrived, arrived.Status)

	// the en-route leg cannot be re-entered once passed
	_, err = uc.MarkArriving(context.Background(), ride.ID)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestEstimateFare_Validation(t *testing.T) {
	uc := newTestUC(newFakeRideRepo(), &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	_, err := uc.EstimateFare(context.Background(), rides.EstimateRequest{
		Pickup:      models.Location{Latitude: 95, Longitude: 0, Address: "x"},
		Destination: models.Location{Latitude: 40.7, Longitude: -74.0, Address: "y"},
	})
	assert.Equal(t, apperr.CodeInvalidLocation, apperr.CodeOf(err))
}

func TestEstimateFare_PremiumCostsMore(t *testing.T) {
	uc := newTestUC(newFakeRideRepo(), &fakeGW{}, matchFor("driver-1"), newFakeDriverPool())

	req := rides.EstimateRequest{
		Pickup:       models.Location{Latitude: 40.7128, Longitude: -74.0060, Address: "a"},
		Destination:  models.Location{Latitude: 40.7527, Longitude: -73.9772, Address: "b"},
		RideOptionID: "standard",
	}

	std, err := uc.EstimateFare(context.Background(), req)
	require.NoError(t, err)

	req.RideOptionID = "premium"
	premium, err := uc.EstimateFare(context.Background(), req)
	require.NoError(t, err)

	assert.Greater(t, premium.Fare.Total, std.Fare.Total)
	assert.Equal(t, std.DistanceMeters, premium.DistanceMeters)
}
