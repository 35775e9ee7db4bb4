// Package gateway publishes ride domain events to NATS.
package gateway

import (
	"github.com/danisworo/jalur/internal/pkg/constants"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	natspkg "github.com/danisworo/jalur/internal/pkg/nats"
)

// RideGW publishes ride events over NATS
type RideGW struct {
	natsClient *natspkg.Client
}

// NewRideGW creates a new ride event gateway
func NewRideGW(natsClient *natspkg.Client) *RideGW {
	return &RideGW{natsClient: natsClient}
}

// PublishStatusChanged emits a ride status transition event.
func (g *RideGW) PublishStatusChanged(event models.RideStatusEvent) error {
	logger.Info("publishing ride status event",
		logger.String("ride_id", event.RideID),
		logger.String("from", string(event.FromStatus)),
		logger.String("to", string(event.ToStatus)))
	return g.natsClient.PublishJSON(constants.SubjectRideStatusChanged, event)
}

// PublishRedispatch asks the orchestrator to find a replacement driver.
func (g *RideGW) PublishRedispatch(event models.RedispatchEvent) error {
	logger.Info("publishing redispatch request",
		logger.String("ride_id", event.RideID),
		logger.String("excluded_driver_id", event.ExcludedDriverID))
	return g.natsClient.PublishJSON(constants.SubjectRideRedispatch, event)
}
