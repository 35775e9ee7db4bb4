package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/payment"
)

type txnKey struct {
	rideID uuid.UUID
	key    string
}

// fakeTxnRepo enforces the (ride_id, idempotency_key) uniqueness the real
// table provides via its constraint.
type fakeTxnRepo struct {
	mu   sync.Mutex
	rows map[txnKey]*models.PaymentTransaction
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{rows: make(map[txnKey]*models.PaymentTransaction)}
}

func (f *fakeTxnRepo) CreatePending(_ context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := txnKey{txn.RideID, txn.IdempotencyKey}
	if existing, ok := f.rows[k]; ok {
		copied := *existing
		return &copied, nil
	}
	txn.Status = models.PaymentStatusPending
	copied := *txn
	f.rows[k] = &copied
	return nil, nil
}

func (f *fakeTxnRepo) find(id uuid.UUID) *models.PaymentTransaction {
	for _, row := range f.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (f *fakeTxnRepo) MarkSucceeded(_ context.Context, id uuid.UUID, providerRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row := f.find(id); row != nil {
		row.Status = models.PaymentStatusSucceeded
		row.ProviderRef = providerRef
	}
	return nil
}

func (f *fakeTxnRepo) MarkFailed(_ context.Context, id uuid.UUID, reason *models.FailureReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row := f.find(id); row != nil {
		row.Status = models.PaymentStatusFailed
		row.FailureReason = reason
	}
	return nil
}

func (f *fakeTxnRepo) MarkPending(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row := f.find(id); row != nil {
		row.Status = models.PaymentStatusPending
		row.FailureReason = nil
	}
	return nil
}

func (f *fakeTxnRepo) GetSucceededCapture(_ context.Context, rideID uuid.UUID) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.RideID == rideID && row.Kind == models.PaymentKindCapture && row.Status == models.PaymentStatusSucceeded {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeProvider returns scripted results in order and records what it was
// asked to charge.
type fakeProvider struct {
	mu      sync.Mutex
	charges int
	refunds int
	inputs  []payment.ChargeInput
	results []*payment.ChargeResult
	errs    []error
}

func (f *fakeProvider) next() (*payment.ChargeResult, error) {
	idx := f.charges + f.refunds - 1
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return &payment.ChargeResult{Succeeded: true, ProviderRef: "pi_test"}, nil
}

func (f *fakeProvider) Charge(_ context.Context, in payment.ChargeInput) (*payment.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges++
	f.inputs = append(f.inputs, in)
	return f.next()
}

func (f *fakeProvider) Refund(_ context.Context, _ string, _ float64, _ string) (*payment.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds++
	return f.next()
}

func (f *fakeProvider) chargeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.charges
}

// fakeLimiter allows a fixed number of attempts.
type fakeLimiter struct {
	remaining int
	resetAt   time.Time
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, time.Time, error) {
	if f.remaining <= 0 {
		return false, f.resetAt, nil
	}
	f.remaining--
	return true, time.Time{}, nil
}

type fakePaymentGW struct {
	mu        sync.Mutex
	processed []models.PaymentEvent
	refunded  []models.PaymentEvent
}

func (f *fakePaymentGW) PublishPaymentProcessed(e models.PaymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, e)
	return nil
}

func (f *fakePaymentGW) PublishPaymentRefunded(e models.PaymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunded = append(f.refunded, e)
	return nil
}

// fakeRideStore implements only the lookups settlement needs.
type fakeRideStore struct {
	rides   map[uuid.UUID]*models.Ride
	pricing map[uuid.UUID]*models.FareBreakdown
}

func newFakeRideStore(ride *models.Ride) *fakeRideStore {
	return &fakeRideStore{
		rides:   map[uuid.UUID]*models.Ride{ride.ID: ride},
		pricing: make(map[uuid.UUID]*models.FareBreakdown),
	}
}

func (f *fakeRideStore) CreateRide(_ context.Context, _ *models.Ride) error { return nil }

func (f *fakeRideStore) GetRideByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	ride, ok := f.rides[id]
	if !ok {
		return nil, apperr.New(apperr.CodeRideNotFound, "ride not found")
	}
	copied := *ride
	return &copied, nil
}

func (f *fakeRideStore) GetActiveRideByRiderID(_ context.Context, _ string) (*models.Ride, error) {
	return nil, nil
}

func (f *fakeRideStore) ListRidesByRider(_ context.Context, _ string, _, _ int) ([]models.Ride, error) {
	return nil, nil
}

func (f *fakeRideStore) TransitionStatus(_ context.Context, _ uuid.UUID, _, _ models.RideStatus) (bool, error) {
	return false, nil
}

func (f *fakeRideStore) CancelRide(_ context.Context, _ uuid.UUID, _, _ models.RideStatus, _ string, _ float64) (bool, error) {
	return false, nil
}

func (f *fakeRideStore) ReassignDriver(_ context.Context, _ uuid.UUID, _ string) (bool, error) {
	return false, nil
}

func (f *fakeRideStore) UpdatePricing(_ context.Context, id uuid.UUID, fare *models.FareBreakdown) error {
	f.pricing[id] = fare
	return nil
}

func completedRide() *models.Ride {
	return &models.Ride{
		ID:      uuid.New(),
		RiderID: "rider-1",
		Status:  models.RideStatusCompleted,
		Pricing: &models.FareBreakdown{Total: 23.76, Tip: 0, Currency: "USD"},
	}
}

func newSettlementUC(ride *models.Ride, provider *fakeProvider, limiter *fakeLimiter) (*PaymentUC, *fakeTxnRepo, *fakePaymentGW, *fakeRideStore) {
	txns := newFakeTxnRepo()
	gw := &fakePaymentGW{}
	store := newFakeRideStore(ride)
	uc := NewPaymentUC(models.PaymentConfig{ProviderTimeoutSec: 5}, txns, limiter, provider, gw, store)
	return uc, txns, gw, store
}

func TestCapture_HappyPath(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, gw, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	result, err := uc.Capture(context.Background(), payment.CaptureRequest{
		RideID:          ride.ID,
		PaymentMethodID: "pm_card",
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 23.76, result.Amount)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, 1, provider.chargeCount())
	require.Len(t, gw.processed, 1)
	assert.Equal(t, models.PaymentStatusSucceeded, gw.processed[0].Status)
}

func TestCapture_IdempotentReplay(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	first, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	second, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	// the provider was only ever charged once
	assert.Equal(t, 1, provider.chargeCount())
}

func TestCapture_DistinctKeysAreDistinctAttempts(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	first, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	second, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 2, provider.chargeCount())
}

func TestCapture_CancelledRideChargesTheFee(t *testing.T) {
	ride := completedRide()
	ride.Status = models.RideStatusCancelled
	ride.CancellationFee = 5.00
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	result, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5.00, result.Amount)
}

func TestCapture_RideNotCompleted(t *testing.T) {
	ride := completedRide()
	ride.Status = models.RideStatusInProgress
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	assert.Equal(t, apperr.CodeRideNotCapturable, apperr.CodeOf(err))
}

func TestCapture_MissingIdempotencyKey(t *testing.T) {
	ride := completedRide()
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card"})
	assert.Equal(t, apperr.CodeMissingRequiredFields, apperr.CodeOf(err))
}

func TestCapture_MissingPaymentMethod(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, IdempotencyKey: "key-1"})
	assert.Equal(t, apperr.CodeMissingRequiredFields, apperr.CodeOf(err))
	assert.Equal(t, 0, provider.chargeCount())
}

func TestCapture_PaymentMethodReachesProvider(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{results: []*payment.ChargeResult{
		{Succeeded: false, Failure: &models.FailureReason{Type: "card_declined", Code: "insufficient_funds", IsRetryable: true}},
		{Succeeded: true, ProviderRef: "pi_second_card"},
	}}
	uc, _, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	first, err := uc.Capture(context.Background(), payment.CaptureRequest{
		RideID:          ride.ID,
		PaymentMethodID: "pm_declined_card",
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	require.False(t, first.Success)

	// the decline is retryable with a different card under a fresh key
	second, err := uc.Capture(context.Background(), payment.CaptureRequest{
		RideID:          ride.ID,
		PaymentMethodID: "pm_other_card",
		IdempotencyKey:  "key-2",
	})
	require.NoError(t, err)
	assert.True(t, second.Success)

	require.Len(t, provider.inputs, 2)
	assert.Equal(t, "pm_declined_card", provider.inputs[0].PaymentMethodID)
	assert.Equal(t, "pm_other_card", provider.inputs[1].PaymentMethodID)
}

func TestCapture_RateLimited(t *testing.T) {
	ride := completedRide()
	resetAt := time.Now().Add(45 * time.Second)
	provider := &fakeProvider{}
	uc, _, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 0, resetAt: resetAt})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.Equal(t, apperr.CodeRateLimited, apperr.CodeOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.NotNil(t, appErr.ResetAt)
	assert.Equal(t, resetAt.Unix(), appErr.ResetAt.Unix())
	// rate limiting happens before the provider is touched
	assert.Equal(t, 0, provider.chargeCount())
}

func TestCapture_DeclineIsNotAnError(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{results: []*payment.ChargeResult{{
		Succeeded: false,
		Failure: &models.FailureReason{
			Type:                "card_declined",
			Code:                "insufficient_funds",
			IsRetryable:         true,
			UserFriendlyMessage: "Your card has insufficient funds.",
		},
	}}}
	uc, txns, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	result, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.RetryAvailable)
	assert.Equal(t, "insufficient_funds", result.FailureReason.Code)
	assert.Contains(t, result.SuggestedActions, "try_another_payment_method")

	stored := txns.rows[txnKey{ride.ID, "key-1"}]
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
}

func TestCapture_FailedAttemptRetriedUnderSameKey(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{results: []*payment.ChargeResult{
		{Succeeded: false, Failure: &models.FailureReason{Type: "card_declined", Code: "generic_decline", IsRetryable: true}},
		{Succeeded: true, ProviderRef: "pi_retry"},
	}}
	uc, txns, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	first, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	require.False(t, first.Success)

	second, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	// retry reuses the original row rather than inserting a second one
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Len(t, txns.rows, 1)
}

func TestCapture_ProviderOutageLeavesTransactionPending(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{errs: []error{errors.New("connection reset")}}
	uc, txns, _, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.Equal(t, apperr.CodeProviderUnavailable, apperr.CodeOf(err))

	stored := txns.rows[txnKey{ride.ID, "key-1"}]
	require.NotNil(t, stored)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)

	// replaying the key retries the pending attempt
	result, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAddTip_FoldsIntoFare(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, _, store := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	result, err := uc.AddTip(context.Background(), payment.TipRequest{
		RideID:          ride.ID,
		Amount:          5.00,
		PaymentMethodID: "pm_card",
		IdempotencyKey:  "tip-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5.00, result.Amount)

	updated := store.pricing[ride.ID]
	require.NotNil(t, updated)
	assert.Equal(t, 5.00, updated.Tip)
	assert.Equal(t, 28.76, updated.Total)
}

func TestAddTip_RejectsNonPositiveAmount(t *testing.T) {
	ride := completedRide()
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	_, err := uc.AddTip(context.Background(), payment.TipRequest{RideID: ride.ID, Amount: 0, PaymentMethodID: "pm_card", IdempotencyKey: "tip-1"})
	assert.Equal(t, apperr.CodeMissingRequiredFields, apperr.CodeOf(err))
}

func TestRefund_FullAndPartial(t *testing.T) {
	ride := completedRide()
	provider := &fakeProvider{}
	uc, _, gw, _ := newSettlementUC(ride, provider, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)

	partial, err := uc.Refund(context.Background(), payment.RefundRequest{
		RideID:         ride.ID,
		Amount:         10.00,
		Reason:         "service issue",
		IdempotencyKey: "refund-1",
	})
	require.NoError(t, err)
	assert.True(t, partial.Success)
	assert.Equal(t, 10.00, partial.Amount)
	require.Len(t, gw.refunded, 1)
}

func TestRefund_RejectsAmountAboveCapture(t *testing.T) {
	ride := completedRide()
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	_, err := uc.Capture(context.Background(), payment.CaptureRequest{RideID: ride.ID, PaymentMethodID: "pm_card", IdempotencyKey: "key-1"})
	require.NoError(t, err)

	_, err = uc.Refund(context.Background(), payment.RefundRequest{
		RideID:         ride.ID,
		Amount:         100.00,
		IdempotencyKey: "refund-1",
	})
	assert.Equal(t, apperr.CodeMissingRequiredFields, apperr.CodeOf(err))
}

func TestRefund_NothingCaptured(t *testing.T) {
	ride := completedRide()
	uc, _, _, _ := newSettlementUC(ride, &fakeProvider{}, &fakeLimiter{remaining: 5})

	_, err := uc.Refund(context.Background(), payment.RefundRequest{RideID: ride.ID, IdempotencyKey: "refund-1"})
	assert.Equal(t, apperr.CodeRideNotCapturable, apperr.CodeOf(err))
}
