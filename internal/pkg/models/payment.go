package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the state of a payment transaction
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentKind distinguishes captures from follow-up operations that share
// the transactions table and its idempotency rules.
type PaymentKind string

const (
	PaymentKindCapture PaymentKind = "capture"
	PaymentKindTip     PaymentKind = "tip"
	PaymentKindRefund  PaymentKind = "refund"
)

// FailureReason carries the structured decline detail returned to callers
type FailureReason struct {
	Type                string `json:"type"`
	Code                string `json:"code"`
	IsRetryable         bool   `json:"is_retryable"`
	UserFriendlyMessage string `json:"user_friendly_message"`
}

// PaymentTransaction represents one settlement attempt against a ride.
// At most one succeeded row may exist per (ride_id, idempotency_key).
type PaymentTransaction struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	RideID         uuid.UUID      `json:"ride_id" db:"ride_id"`
	IdempotencyKey string         `json:"idempotency_key" db:"idempotency_key"`
	Kind           PaymentKind    `json:"kind" db:"kind"`
	Amount         float64        `json:"amount" db:"amount"`
	Currency       string         `json:"currency" db:"currency"`
	Status         PaymentStatus  `json:"status" db:"status"`
	ProviderRef    string         `json:"provider_ref,omitempty" db:"provider_ref"`
	FailureReason  *FailureReason `json:"failure_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// PaymentResult is the discriminated result of a settlement operation
type PaymentResult struct {
	Success          bool           `json:"success"`
	TransactionID    string         `json:"transaction_id,omitempty"`
	Amount           float64        `json:"amount,omitempty"`
	Currency         string         `json:"currency,omitempty"`
	RetryAvailable   bool           `json:"retry_available,omitempty"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	FailureReason    *FailureReason `json:"failure_reason,omitempty"`
}

// PaymentEvent is published after a settlement attempt finishes
type PaymentEvent struct {
	TransactionID string        `json:"transaction_id"`
	RideID        string        `json:"ride_id"`
	Kind          PaymentKind   `json:"kind"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}
