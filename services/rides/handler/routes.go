// Package handler wires the ride service's HTTP routes and NATS consumers.
package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/middleware"
	"github.com/danisworo/jalur/internal/pkg/models"
	natspkg "github.com/danisworo/jalur/internal/pkg/nats"
	"github.com/danisworo/jalur/services/match"
	"github.com/danisworo/jalur/services/rides"
	httpHandler "github.com/danisworo/jalur/services/rides/handler/http"
	natsHandler "github.com/danisworo/jalur/services/rides/handler/nats"
)

// Handler combines the ride service's HTTP and NATS handlers
type Handler struct {
	ridesHTTP   *httpHandler.RidesHandler
	driversHTTP *httpHandler.DriversHandler
	ridesNATS   *natsHandler.RidesHandler
	cfg         *models.Config
}

// NewHandler creates a new combined ride handler
func NewHandler(
	cfg *models.Config,
	rideUC rides.RideUC,
	pool match.DriverPoolRepo,
	natsClient *natspkg.Client,
) *Handler {
	return &Handler{
		ridesHTTP:   httpHandler.NewRidesHandler(rideUC),
		driversHTTP: httpHandler.NewDriversHandler(pool),
		ridesNATS:   natsHandler.NewRidesHandler(rideUC, pool, natsClient),
		cfg:         cfg,
	}
}

// RegisterRoutes registers the rider-facing and internal ride routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// rider-facing routes, JWT required
	riderGroup := e.Group("/rides", middleware.JWTAuthMiddleware(h.cfg.JWT))
	riderGroup.POST("/estimate", h.ridesHTTP.EstimateFare)
	riderGroup.POST("/book", h.ridesHTTP.BookRide)
	riderGroup.GET("/history", h.ridesHTTP.History)
	riderGroup.GET("/:rideID", h.ridesHTTP.GetRide)
	riderGroup.POST("/:rideID/cancel", h.ridesHTTP.CancelRide)

	// internal service-to-service routes, API key required
	internal := e.Group("/internal", middleware.APIKeyMiddleware(h.cfg.APIKey))
	internalRides := internal.Group("/rides")
	internalRides.POST("/:rideID/enroute", h.ridesHTTP.MarkArriving)
	internalRides.POST("/:rideID/arrive", h.ridesHTTP.MarkArrived)
	internalRides.POST("/:rideID/start", h.ridesHTTP.MarkInProgress)
	internalRides.POST("/:rideID/complete", h.ridesHTTP.MarkCompleted)

	internalDrivers := internal.Group("/drivers")
	internalDrivers.PUT("/:driverID", h.driversHTTP.UpsertDriver)
	internalDrivers.POST("/:driverID/status", h.driversHTTP.UpdateDriverStatus)
}

// InitNATSConsumers starts the ride service's event consumers.
func (h *Handler) InitNATSConsumers() error {
	return h.ridesNATS.InitConsumers()
}

// Close drains the NATS consumers.
func (h *Handler) Close() {
	h.ridesNATS.Close()
}
