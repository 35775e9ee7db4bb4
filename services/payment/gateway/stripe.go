// Package gateway holds the payment service's external integrations: the
// Stripe card provider and the NATS event publisher.
package gateway

import (
	"context"
	"errors"
	"math"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/payment"
)

// StripeProvider implements the card provider over Stripe PaymentIntents.
type StripeProvider struct{}

// NewStripeProvider initializes the Stripe client with the given API key.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{}
}

// Charge creates and confirms a PaymentIntent for the fare. The idempotency
// key is forwarded to Stripe so a retried call never double-charges.
func (p *StripeProvider) Charge(ctx context.Context, in payment.ChargeInput) (*payment.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toCents(in.Amount)),
		Currency:      stripe.String(in.Currency),
		Description:   stripe.String(in.Description),
		PaymentMethod: stripe.String(in.PaymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)
	params.AddMetadata("ride_id", in.RideID)

	pi, err := paymentintent.New(params)
	if err != nil {
		if failure := classifyStripeError(err); failure != nil {
			return &payment.ChargeResult{Succeeded: false, Failure: failure}, nil
		}
		return nil, err
	}
	return &payment.ChargeResult{Succeeded: true, ProviderRef: pi.ID}, nil
}

// Refund reverses a captured PaymentIntent, fully or partially.
func (p *StripeProvider) Refund(ctx context.Context, providerRef string, amount float64, currency string) (*payment.ChargeResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerRef),
	}
	params.Context = ctx
	if amount > 0 {
		params.Amount = stripe.Int64(toCents(amount))
	}

	ref, err := refund.New(params)
	if err != nil {
		if failure := classifyStripeError(err); failure != nil {
			return &payment.ChargeResult{Succeeded: false, Failure: failure}, nil
		}
		return nil, err
	}
	return &payment.ChargeResult{Succeeded: true, ProviderRef: ref.ID}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}

// classifyStripeError maps a card error onto the engine's failure taxonomy.
// Non-card errors (network, auth, rate limits) return nil and are treated as
// provider unavailability by the caller.
func classifyStripeError(err error) *models.FailureReason {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.Type != stripe.ErrorTypeCard {
		return nil
	}
	return ClassifyDecline(string(stripeErr.DeclineCode), stripeErr.Msg)
}

// ClassifyDecline maps a provider decline code onto the failure taxonomy.
// Transient declines are retryable; fraud-flavored ones are not.
func ClassifyDecline(declineCode, providerMsg string) *models.FailureReason {
	switch declineCode {
	case "insufficient_funds":
		return &models.FailureReason{
			Type:                "card_declined",
			Code:                declineCode,
			IsRetryable:         true,
			UserFriendlyMessage: "Your card has insufficient funds. Try another payment method.",
		}
	case "expired_card":
		return &models.FailureReason{
			Type:                "card_declined",
			Code:                declineCode,
			IsRetryable:         false,
			UserFriendlyMessage: "Your card has expired. Update your payment method.",
		}
	case "fraudulent", "stolen_card", "lost_card", "pickup_card":
		return &models.FailureReason{
			Type:                "fraud_suspected",
			Code:                declineCode,
			IsRetryable:         false,
			UserFriendlyMessage: "This payment could not be processed. Contact your bank.",
		}
	case "processing_error", "try_again_later":
		return &models.FailureReason{
			Type:                "processing_error",
			Code:                declineCode,
			IsRetryable:         true,
			UserFriendlyMessage: "A temporary processing error occurred. Please try again.",
		}
	default:
		msg := providerMsg
		if msg == "" {
			msg = "Your card was declined."
		}
		return &models.FailureReason{
			Type:                "card_declined",
			Code:                declineCode,
			IsRetryable:         true,
			UserFriendlyMessage: msg,
		}
	}
}
