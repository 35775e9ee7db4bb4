// Package usecase implements payment settlement: idempotent capture, tips
// and refunds.
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
	"github.com/danisworo/jalur/services/payment"
	"github.com/danisworo/jalur/services/pricing"
	"github.com/danisworo/jalur/services/rides"
)

// PaymentUC implements settlement over the transaction store, the rate
// limiter and the card provider.
type PaymentUC struct {
	cfg      models.PaymentConfig
	txns     payment.TransactionRepo
	limiter  payment.RateLimiter
	provider payment.Provider
	gw       payment.PaymentGW
	rideRepo rides.RideRepo
}

// NewPaymentUC creates a new settlement usecase
func NewPaymentUC(
	cfg models.PaymentConfig,
	txns payment.TransactionRepo,
	limiter payment.RateLimiter,
	provider payment.Provider,
	gw payment.PaymentGW,
	rideRepo rides.RideRepo,
) *PaymentUC {
	return &PaymentUC{
		cfg:      cfg,
		txns:     txns,
		limiter:  limiter,
		provider: provider,
		gw:       gw,
		rideRepo: rideRepo,
	}
}

// Capture settles the fare of a completed ride. Replaying the same
// idempotency key returns the original outcome without touching the provider
// again; a previously failed attempt under the same key is retried in place.
func (uc *PaymentUC) Capture(ctx context.Context, req payment.CaptureRequest) (*models.PaymentResult, error) {
	if req.IdempotencyKey == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "idempotency_key is required")
	}
	if req.PaymentMethodID == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "payment_method_id is required")
	}

	ride, err := uc.rideRepo.GetRideByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	var amount float64
	switch {
	case ride.Status == models.RideStatusCompleted:
		if ride.Pricing == nil || ride.Pricing.Total <= 0 {
			return nil, apperr.New(apperr.CodeRideNotCapturable, "ride has no fare to capture")
		}
		amount = ride.Pricing.Total
	case ride.Status == models.RideStatusCancelled && ride.CancellationFee > 0:
		amount = ride.CancellationFee
	default:
		return nil, apperr.New(apperr.CodeRideNotCapturable,
			fmt.Sprintf("ride is %s with nothing to capture", ride.Status))
	}

	if err := uc.checkRateLimit(ctx, ride.RiderID); err != nil {
		return nil, err
	}

	currency := "USD"
	if ride.Pricing != nil && ride.Pricing.Currency != "" {
		currency = ride.Pricing.Currency
	}

	txn := &models.PaymentTransaction{
		ID:             uuid.New(),
		RideID:         req.RideID,
		IdempotencyKey: req.IdempotencyKey,
		Kind:           models.PaymentKindCapture,
		Amount:         amount,
		Currency:       currency,
	}

	existing, err := uc.txns.CreatePending(ctx, txn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		replay, done := uc.replayExisting(ctx, existing)
		if done {
			return replay, nil
		}
		// previously failed attempt, retried under the same key
		txn = existing
	}

	return uc.charge(ctx, txn, req.PaymentMethodID, fmt.Sprintf("ride fare %s", ride.ID))
}

// replayExisting resolves a duplicate idempotency key against the stored
// outcome. A succeeded row replays its result; pending and failed rows are
// retried in place, since the provider-side idempotency key collapses any
// duplicate charge.
func (uc *PaymentUC) replayExisting(ctx context.Context, existing *models.PaymentTransaction) (*models.PaymentResult, bool) {
	if existing.Status == models.PaymentStatusSucceeded {
		return &models.PaymentResult{
			Success:       true,
			TransactionID: existing.ID.String(),
			Amount:        existing.Amount,
			Currency:      existing.Currency,
		}, true
	}
	if existing.Status == models.PaymentStatusFailed {
		if err := uc.txns.MarkPending(ctx, existing.ID); err != nil {
			logger.Error("failed to reset failed transaction for retry",
				logger.String("transaction_id", existing.ID.String()),
				logger.Err(err))
		}
	}
	return nil, false
}

// charge runs one provider attempt for the pending transaction and records
// its outcome. Transport failures leave the transaction pending so a later
// replay of the key can retry.
func (uc *PaymentUC) charge(ctx context.Context, txn *models.PaymentTransaction, paymentMethodID, description string) (*models.PaymentResult, error) {
	timeout := time.Duration(uc.cfg.ProviderTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	chargeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := uc.provider.Charge(chargeCtx, payment.ChargeInput{
		RideID:          txn.RideID.String(),
		IdempotencyKey:  txn.IdempotencyKey,
		PaymentMethodID: paymentMethodID,
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		Description:     description,
	})
	if err != nil {
		observability.PaymentsTotal.WithLabelValues(string(txn.Kind), "provider_error").Inc()
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable,
			"payment provider did not respond, the attempt may be retried", err)
	}

	if !result.Succeeded {
		if err := uc.txns.MarkFailed(ctx, txn.ID, result.Failure); err != nil {
			return nil, err
		}
		observability.PaymentsTotal.WithLabelValues(string(txn.Kind), string(models.PaymentStatusFailed)).Inc()
		uc.emit(txn, models.PaymentStatusFailed)

		return &models.PaymentResult{
			Success:          false,
			TransactionID:    txn.ID.String(),
			RetryAvailable:   result.Failure.IsRetryable,
			FailureReason:    result.Failure,
			SuggestedActions: suggestedActions(result.Failure),
		}, nil
	}

	if err := uc.txns.MarkSucceeded(ctx, txn.ID, result.ProviderRef); err != nil {
		return nil, err
	}
	txn.ProviderRef = result.ProviderRef
	observability.PaymentsTotal.WithLabelValues(string(txn.Kind), string(models.PaymentStatusSucceeded)).Inc()
	uc.emit(txn, models.PaymentStatusSucceeded)

	logger.Info("payment settled",
		logger.String("ride_id", txn.RideID.String()),
		logger.String("transaction_id", txn.ID.String()),
		logger.String("kind", string(txn.Kind)),
		logger.Float64("amount", txn.Amount))

	return &models.PaymentResult{
		Success:       true,
		TransactionID: txn.ID.String(),
		Amount:        txn.Amount,
		Currency:      txn.Currency,
	}, nil
}

// AddTip charges a post-ride tip and folds it into the stored fare.
func (uc *PaymentUC) AddTip(ctx context.Context, req payment.TipRequest) (*models.PaymentResult, error) {
	if req.IdempotencyKey == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "idempotency_key is required")
	}
	if req.Amount <= 0 {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "tip amount must be positive")
	}
	if req.PaymentMethodID == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "payment_method_id is required")
	}

	ride, err := uc.rideRepo.GetRideByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, apperr.New(apperr.CodeRideNotCapturable, "tips can only be added to completed rides")
	}

	if err := uc.checkRateLimit(ctx, ride.RiderID); err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		ID:             uuid.New(),
		RideID:         req.RideID,
		IdempotencyKey: req.IdempotencyKey,
		Kind:           models.PaymentKindTip,
		Amount:         pricing.Round2(req.Amount),
		Currency:       ride.Pricing.Currency,
	}

	existing, err := uc.txns.CreatePending(ctx, txn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		replay, done := uc.replayExisting(ctx, existing)
		if done {
			return replay, nil
		}
		txn = existing
	}

	result, err := uc.charge(ctx, txn, req.PaymentMethodID, fmt.Sprintf("tip for ride %s", ride.ID))
	if err != nil || !result.Success {
		return result, err
	}

	fare := *ride.Pricing
	fare.Tip = pricing.Round2(fare.Tip + txn.Amount)
	fare.Total = pricing.Round2(fare.Total + txn.Amount)
	if err := uc.rideRepo.UpdatePricing(ctx, ride.ID, &fare); err != nil {
		logger.Error("tip charged but fare update failed",
			logger.String("ride_id", ride.ID.String()),
			logger.Err(err))
	}
	return result, nil
}

// Refund reverses a captured payment, fully or partially.
func (uc *PaymentUC) Refund(ctx context.Context, req payment.RefundRequest) (*models.PaymentResult, error) {
	if req.IdempotencyKey == "" {
		return nil, apperr.New(apperr.CodeMissingRequiredFields, "idempotency_key is required")
	}

	capture, err := uc.txns.GetSucceededCapture(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if capture == nil {
		return nil, apperr.New(apperr.CodeRideNotCapturable, "no captured payment to refund")
	}

	amount := req.Amount
	if amount == 0 {
		amount = capture.Amount
	}
	if amount < 0 || amount > capture.Amount {
		return nil, apperr.New(apperr.CodeMissingRequiredFields,
			fmt.Sprintf("refund amount must be between 0 and %.2f", capture.Amount))
	}
	amount = pricing.Round2(amount)

	txn := &models.PaymentTransaction{
		ID:             uuid.New(),
		RideID:         req.RideID,
		IdempotencyKey: req.IdempotencyKey,
		Kind:           models.PaymentKindRefund,
		Amount:         amount,
		Currency:       capture.Currency,
	}

	existing, err := uc.txns.CreatePending(ctx, txn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		replay, done := uc.replayExisting(ctx, existing)
		if done {
			return replay, nil
		}
		txn = existing
	}

	timeout := time.Duration(uc.cfg.ProviderTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	refundCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := uc.provider.Refund(refundCtx, capture.ProviderRef, amount, capture.Currency)
	if err != nil {
		observability.PaymentsTotal.WithLabelValues(string(txn.Kind), "provider_error").Inc()
		return nil, apperr.Wrap(apperr.CodeProviderUnavailable,
			"payment provider did not respond, the refund may be retried", err)
	}
	if !result.Succeeded {
		if err := uc.txns.MarkFailed(ctx, txn.ID, result.Failure); err != nil {
			return nil, err
		}
		observability.PaymentsTotal.WithLabelValues(string(txn.Kind), string(models.PaymentStatusFailed)).Inc()
		return &models.PaymentResult{
			Success:        false,
			TransactionID:  txn.ID.String(),
			RetryAvailable: result.Failure.IsRetryable,
			FailureReason:  result.Failure,
		}, nil
	}

	if err := uc.txns.MarkSucceeded(ctx, txn.ID, result.ProviderRef); err != nil {
		return nil, err
	}
	observability.PaymentsTotal.WithLabelValues(string(txn.Kind), string(models.PaymentStatusSucceeded)).Inc()

	event := models.PaymentEvent{
		TransactionID: txn.ID.String(),
		RideID:        txn.RideID.String(),
		Kind:          txn.Kind,
		Amount:        txn.Amount,
		Status:        models.PaymentStatusSucceeded,
		Timestamp:     time.Now(),
	}
	if err := uc.gw.PublishPaymentRefunded(event); err != nil {
		logger.Error("failed to publish refund event",
			logger.String("ride_id", event.RideID),
			logger.Err(err))
	}

	logger.Info("refund settled",
		logger.String("ride_id", txn.RideID.String()),
		logger.Float64("amount", amount),
		logger.String("reason", req.Reason))

	return &models.PaymentResult{
		Success:       true,
		TransactionID: txn.ID.String(),
		Amount:        amount,
		Currency:      capture.Currency,
	}, nil
}

func (uc *PaymentUC) checkRateLimit(ctx context.Context, riderID string) error {
	allowed, resetAt, err := uc.limiter.Allow(ctx, riderID)
	if err != nil {
		return err
	}
	if !allowed {
		observability.RateLimitedTotal.Inc()
		logger.Warn("payment attempt rate limited",
			logger.String("rider_id", riderID),
			logger.Time("reset_at", resetAt))
		return apperr.RateLimited(resetAt)
	}
	return nil
}

func (uc *PaymentUC) emit(txn *models.PaymentTransaction, status models.PaymentStatus) {
	event := models.PaymentEvent{
		TransactionID: txn.ID.String(),
		RideID:        txn.RideID.String(),
		Kind:          txn.Kind,
		Amount:        txn.Amount,
		Status:        status,
		Timestamp:     time.Now(),
	}
	if err := uc.gw.PublishPaymentProcessed(event); err != nil {
		logger.Error("failed to publish payment event",
			logger.String("ride_id", event.RideID),
			logger.Err(err))
	}
}

func suggestedActions(failure *models.FailureReason) []string {
	switch {
	case failure == nil:
		return nil
	case failure.Code == "insufficient_funds":
		return []string{"try_another_payment_method", "add_funds"}
	case failure.Type == "fraud_suspected":
		return []string{"contact_bank"}
	case failure.IsRetryable:
		return []string{"retry"}
	default:
		return []string{"contact_support"}
	}
}
