// Package nats consumes the dispatch engine's domain events: re-dispatch
// requests and driver pool updates.
package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/danisworo/jalur/internal/pkg/apperr"
	"github.com/danisworo/jalur/internal/pkg/constants"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	natspkg "github.com/danisworo/jalur/internal/pkg/nats"
	"github.com/danisworo/jalur/internal/pkg/retry"
	"github.com/danisworo/jalur/services/match"
	"github.com/danisworo/jalur/services/rides"
)

const (
	queueGroup     = "dispatch"
	consumeTimeout = 30 * time.Second
)

// RidesHandler consumes ride and driver events from NATS
type RidesHandler struct {
	rideUC     rides.RideUC
	pool       match.DriverPoolRepo
	natsClient *natspkg.Client
	retrier    *retry.Retrier
	subs       []*nats.Subscription
}

// NewRidesHandler creates a new NATS consumer handler
func NewRidesHandler(rideUC rides.RideUC, pool match.DriverPoolRepo, natsClient *natspkg.Client) *RidesHandler {
	cfg := retry.DefaultConfig()
	// domain errors are final; only infrastructure failures are retried
	cfg.RetryableFunc = func(err error) bool {
		return apperr.CodeOf(err) == ""
	}
	return &RidesHandler{
		rideUC:     rideUC,
		pool:       pool,
		natsClient: natsClient,
		retrier:    retry.New(cfg),
	}
}

// InitConsumers subscribes to the redispatch and driver subjects. Queue
// groups ensure only one engine instance processes each event.
func (h *RidesHandler) InitConsumers() error {
	sub, err := h.natsClient.QueueSubscribe(constants.SubjectRideRedispatch, queueGroup, h.handleRedispatch)
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)

	sub, err = h.natsClient.QueueSubscribe(constants.SubjectDriverStatus, queueGroup, h.handleDriverStatus)
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)

	sub, err = h.natsClient.QueueSubscribe(constants.SubjectDriverLocation, queueGroup, h.handleDriverLocation)
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)

	logger.Info("NATS consumers initialized",
		logger.Int("subscriptions", len(h.subs)))
	return nil
}

func (h *RidesHandler) handleRedispatch(msg *nats.Msg) {
	var event models.RedispatchEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("failed to unmarshal redispatch event", logger.Err(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumeTimeout)
	defer cancel()

	err := h.retrier.Execute(ctx, func(ctx context.Context) error {
		return h.rideUC.Redispatch(ctx, event)
	})
	if err != nil {
		logger.Error("redispatch failed",
			logger.String("ride_id", event.RideID),
			logger.Err(err))
	}
}

func (h *RidesHandler) handleDriverStatus(msg *nats.Msg) {
	var update models.DriverStatusUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		logger.Error("failed to unmarshal driver status event", logger.Err(err))
		return
	}
	if update.DriverID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumeTimeout)
	defer cancel()

	if err := h.pool.UpdateDriverStatus(ctx, update.DriverID, update.Status); err != nil {
		logger.Error("failed to apply driver status event",
			logger.String("driver_id", update.DriverID),
			logger.Err(err))
	}
}

func (h *RidesHandler) handleDriverLocation(msg *nats.Msg) {
	var driver models.Driver
	if err := json.Unmarshal(msg.Data, &driver); err != nil {
		logger.Error("failed to unmarshal driver snapshot", logger.Err(err))
		return
	}
	if driver.ID == "" || !driver.CurrentLocation.Valid() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumeTimeout)
	defer cancel()

	if err := h.pool.UpsertDriver(ctx, &driver); err != nil {
		logger.Error("failed to apply driver snapshot",
			logger.String("driver_id", driver.ID),
			logger.Err(err))
	}
}

// Close drains all subscriptions.
func (h *RidesHandler) Close() {
	for _, sub := range h.subs {
		if err := sub.Drain(); err != nil {
			logger.Warn("failed to drain subscription", logger.Err(err))
		}
	}
}
