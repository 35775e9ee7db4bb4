// Package repository persists payment transactions in PostgreSQL and the
// settlement rate-limit window in Redis.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

// TransactionRepo implements payment transaction persistence
type TransactionRepo struct {
	db *sqlx.DB
}

// NewTransactionRepository creates a new payment transaction repository
func NewTransactionRepository(db *sqlx.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// txnDTO flattens the nested FailureReason for database operations.
type txnDTO struct {
	ID               uuid.UUID            `db:"id"`
	RideID           uuid.UUID            `db:"ride_id"`
	IdempotencyKey   string               `db:"idempotency_key"`
	Kind             models.PaymentKind   `db:"kind"`
	Amount           float64              `db:"amount"`
	Currency         string               `db:"currency"`
	Status           models.PaymentStatus `db:"status"`
	ProviderRef      string               `db:"provider_ref"`
	FailureType      string               `db:"failure_type"`
	FailureCode      string               `db:"failure_code"`
	FailureRetryable bool                 `db:"failure_retryable"`
	FailureMessage   string               `db:"failure_message"`
	CreatedAt        time.Time            `db:"created_at"`
	UpdatedAt        time.Time            `db:"updated_at"`
}

func (d *txnDTO) toTransaction() *models.PaymentTransaction {
	txn := &models.PaymentTransaction{
		ID:             d.ID,
		RideID:         d.RideID,
		IdempotencyKey: d.IdempotencyKey,
		Kind:           d.Kind,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Status:         d.Status,
		ProviderRef:    d.ProviderRef,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.FailureCode != "" {
		txn.FailureReason = &models.FailureReason{
			Type:                d.FailureType,
			Code:                d.FailureCode,
			IsRetryable:         d.FailureRetryable,
			UserFriendlyMessage: d.FailureMessage,
		}
	}
	return txn
}

// CreatePending inserts a pending transaction. A unique constraint hit on
// (ride_id, idempotency_key) means the key was already used; the existing row
// is returned so the caller can replay its outcome.
func (r *TransactionRepo) CreatePending(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	now := time.Now()
	txn.Status = models.PaymentStatusPending
	txn.CreatedAt = now
	txn.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_transactions
		 (id, ride_id, idempotency_key, kind, amount, currency, status, provider_ref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		txn.ID, txn.RideID, txn.IdempotencyKey, txn.Kind,
		txn.Amount, txn.Currency, txn.Status, txn.ProviderRef, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return r.getByKey(ctx, txn.RideID, txn.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to insert payment transaction: %w", err)
	}
	return nil, nil
}

func (r *TransactionRepo) getByKey(ctx context.Context, rideID uuid.UUID, key string) (*models.PaymentTransaction, error) {
	var dto txnDTO
	err := r.db.GetContext(ctx, &dto,
		`SELECT * FROM payment_transactions WHERE ride_id = $1 AND idempotency_key = $2`,
		rideID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing transaction: %w", err)
	}
	return dto.toTransaction(), nil
}

// MarkSucceeded finalizes a transaction as succeeded.
func (r *TransactionRepo) MarkSucceeded(ctx context.Context, id uuid.UUID, providerRef string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_transactions
		 SET status = $1, provider_ref = $2, updated_at = $3
		 WHERE id = $4`,
		models.PaymentStatusSucceeded, providerRef, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction succeeded: %w", err)
	}
	return nil
}

// MarkFailed finalizes a transaction as failed with the decline detail.
func (r *TransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason *models.FailureReason) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_transactions
		 SET status = $1, failure_type = $2, failure_code = $3,
		     failure_retryable = $4, failure_message = $5, updated_at = $6
		 WHERE id = $7`,
		models.PaymentStatusFailed, reason.Type, reason.Code,
		reason.IsRetryable, reason.UserFriendlyMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	return nil
}

// MarkPending returns a failed transaction to pending for a fresh attempt.
func (r *TransactionRepo) MarkPending(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_transactions
		 SET status = $1, failure_type = '', failure_code = '',
		     failure_retryable = false, failure_message = '', updated_at = $2
		 WHERE id = $3`,
		models.PaymentStatusPending, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reset transaction to pending: %w", err)
	}
	return nil
}

// GetSucceededCapture returns the successful capture for a ride, or nil when
// the ride has not been settled yet.
func (r *TransactionRepo) GetSucceededCapture(ctx context.Context, rideID uuid.UUID) (*models.PaymentTransaction, error) {
	var dto txnDTO
	err := r.db.GetContext(ctx, &dto,
		`SELECT * FROM payment_transactions
		 WHERE ride_id = $1 AND kind = $2 AND status = $3
		 LIMIT 1`,
		rideID, models.PaymentKindCapture, models.PaymentStatusSucceeded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load captured payment: %w", err)
	}
	return dto.toTransaction(), nil
}
