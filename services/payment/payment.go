// Package payment settles ride fares against the card provider with
// idempotency and rate limiting.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// ChargeInput carries one provider charge attempt.
type ChargeInput struct {
	RideID          string
	IdempotencyKey  string
	PaymentMethodID string
	Amount          float64
	Currency        string
	Description     string
}

// ChargeResult is the provider's answer to a charge attempt. A decline is a
// successful call with Succeeded=false; transport failures surface as errors.
type ChargeResult struct {
	Succeeded   bool
	ProviderRef string
	Failure     *models.FailureReason
}

// Provider abstracts the card payment processor.
type Provider interface {
	Charge(ctx context.Context, in ChargeInput) (*ChargeResult, error)
	Refund(ctx context.Context, providerRef string, amount float64, currency string) (*ChargeResult, error)
}

// TransactionRepo persists settlement attempts. The table carries a unique
// constraint on (ride_id, idempotency_key) so duplicate submissions collapse
// onto one row.
type TransactionRepo interface {
	// CreatePending inserts a pending transaction. When a row with the same
	// (ride_id, idempotency_key) already exists, the existing row is returned
	// instead and nothing is written.
	CreatePending(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	// MarkSucceeded finalizes a transaction as succeeded.
	MarkSucceeded(ctx context.Context, id uuid.UUID, providerRef string) error
	// MarkFailed finalizes a transaction as failed with the decline detail.
	MarkFailed(ctx context.Context, id uuid.UUID, reason *models.FailureReason) error
	// MarkPending returns a previously failed transaction to pending for a
	// fresh attempt.
	MarkPending(ctx context.Context, id uuid.UUID) error
	// GetSucceededCapture returns the successful capture for a ride, or nil.
	GetSucceededCapture(ctx context.Context, rideID uuid.UUID) (*models.PaymentTransaction, error)
}

// RateLimiter bounds settlement attempts per rider.
type RateLimiter interface {
	// Allow consumes one attempt. When the limit is hit it reports the time
	// the window resets.
	Allow(ctx context.Context, riderID string) (bool, time.Time, error)
}

// PaymentGW publishes settlement events.
type PaymentGW interface {
	PublishPaymentProcessed(event models.PaymentEvent) error
	PublishPaymentRefunded(event models.PaymentEvent) error
}

// CaptureRequest asks for the ride fare to be captured against the given
// payment method. A declined method can be retried with a different one
// under a fresh idempotency key.
type CaptureRequest struct {
	RideID          uuid.UUID `json:"ride_id"`
	PaymentMethodID string    `json:"payment_method_id"`
	IdempotencyKey  string    `json:"idempotency_key"`
}

// TipRequest adds a post-ride tip.
type TipRequest struct {
	RideID          uuid.UUID `json:"ride_id"`
	Amount          float64   `json:"amount"`
	PaymentMethodID string    `json:"payment_method_id"`
	IdempotencyKey  string    `json:"idempotency_key"`
}

// RefundRequest reverses part or all of a captured fare.
type RefundRequest struct {
	RideID         uuid.UUID `json:"ride_id"`
	Amount         float64   `json:"amount"` // 0 means full refund
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// PaymentUC defines the settlement business logic.
type PaymentUC interface {
	// Capture settles the fare of a completed ride. Replaying the same
	// idempotency key returns the original outcome without charging again.
	Capture(ctx context.Context, req CaptureRequest) (*models.PaymentResult, error)
	// AddTip charges a post-ride tip and folds it into the stored fare.
	AddTip(ctx context.Context, req TipRequest) (*models.PaymentResult, error)
	// Refund reverses a captured payment.
	Refund(ctx context.Context, req RefundRequest) (*models.PaymentResult, error)
}
