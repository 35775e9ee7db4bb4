package gateway

import (
	"github.com/danisworo/jalur/internal/pkg/constants"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	natspkg "github.com/danisworo/jalur/internal/pkg/nats"
)

// PaymentGW publishes settlement events over NATS
type PaymentGW struct {
	natsClient *natspkg.Client
}

// NewPaymentGW creates a new payment event gateway
func NewPaymentGW(natsClient *natspkg.Client) *PaymentGW {
	return &PaymentGW{natsClient: natsClient}
}

// PublishPaymentProcessed emits the outcome of a capture or tip attempt.
func (g *PaymentGW) PublishPaymentProcessed(event models.PaymentEvent) error {
	logger.Info("publishing payment event",
		logger.String("ride_id", event.RideID),
		logger.String("kind", string(event.Kind)),
		logger.String("status", string(event.Status)))
	return g.natsClient.PublishJSON(constants.SubjectPaymentProcessed, event)
}

// PublishPaymentRefunded emits a completed refund.
func (g *PaymentGW) PublishPaymentRefunded(event models.PaymentEvent) error {
	logger.Info("publishing refund event",
		logger.String("ride_id", event.RideID),
		logger.String("kind", string(event.Kind)))
	return g.natsClient.PublishJSON(constants.SubjectPaymentRefunded, event)
}
