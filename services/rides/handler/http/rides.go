// Package http exposes the ride lifecycle over HTTP.
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/internal/utils"
	"github.com/danisworo/jalur/services/rides"
	rideuc "github.com/danisworo/jalur/services/rides/usecase"
)

// RidesHandler handles HTTP requests for ride operations
type RidesHandler struct {
	rideUC rides.RideUC
}

// NewRidesHandler creates a new ride HTTP handler
func NewRidesHandler(rideUC rides.RideUC) *RidesHandler {
	return &RidesHandler{rideUC: rideUC}
}

// EstimateFare handles the up-front fare quote request
func (h *RidesHandler) EstimateFare(c echo.Context) error {
	var req rides.EstimateRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	estimate, err := h.rideUC.EstimateFare(c.Request().Context(), req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Fare estimated", estimate)
}

// BookRide handles the ride booking request
func (h *RidesHandler) BookRide(c echo.Context) error {
	var req models.RideRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	// the rider identity comes from the token, never the body
	req.RiderID, _ = c.Get("user_id").(string)
	if req.PassengerCount == 0 {
		req.PassengerCount = 1
	}

	logger.Info("received booking request",
		logger.String("rider_id", req.RiderID),
		logger.String("ride_option", req.RideOptionID),
		logger.String("client_ip", c.RealIP()))

	ride, match, err := h.rideUC.BookRide(c.Request().Context(), req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if ride == nil {
		// no driver available; the match result carries tier suggestions
		return utils.SuccessResponse(c, http.StatusOK, "No drivers available", match)
	}

	return utils.SuccessResponse(c, http.StatusCreated, "Ride booked", map[string]interface{}{
		"ride":  ride,
		"match": match.Best,
	})
}

// GetRide handles the ride detail request
func (h *RidesHandler) GetRide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("rideID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid ride ID")
	}

	ride, err := h.rideUC.GetRide(c.Request().Context(), id)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride found", ride)
}

// History handles the ride history request for the authenticated rider
func (h *RidesHandler) History(c echo.Context) error {
	riderID, _ := c.Get("user_id").(string)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	history, err := h.rideUC.ListHistory(c.Request().Context(), riderID, limit, offset)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride history", history)
}

type cancelRequest struct {
	Reason string  `json:"reason"`
	Fee    float64 `json:"fee,omitempty"`
}

// CancelRide handles the cancellation request. The canceller's role comes
// from the token: drivers trigger re-dispatch, riders pay the stage fee.
func (h *RidesHandler) CancelRide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("rideID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid ride ID")
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	cancelledBy := "rider"
	if role, _ := c.Get("user_role").(string); role == rideuc.CancelledByDriver {
		cancelledBy = rideuc.CancelledByDriver
	}

	ride, err := h.rideUC.CancelRide(c.Request().Context(), id, cancelledBy, req.Reason, req.Fee)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride cancelled", ride)
}

// MarkArriving handles the internal driver-en-route notification
func (h *RidesHandler) MarkArriving(c echo.Context) error {
	return h.applyTransition(c, h.rideUC.MarkArriving, "Driver en route")
}

// MarkArrived handles the internal driver-arrival notification
func (h *RidesHandler) MarkArrived(c echo.Context) error {
	return h.applyTransition(c, h.rideUC.MarkArrived, "Driver arrived")
}

// MarkInProgress handles the internal trip-start notification
func (h *RidesHandler) MarkInProgress(c echo.Context) error {
	return h.applyTransition(c, h.rideUC.MarkInProgress, "Ride started")
}

// MarkCompleted handles the internal trip-completion notification
func (h *RidesHandler) MarkCompleted(c echo.Context) error {
	return h.applyTransition(c, h.rideUC.MarkCompleted, "Ride completed")
}

func (h *RidesHandler) applyTransition(
	c echo.Context,
	op func(ctx context.Context, id uuid.UUID) (*models.Ride, error),
	message string,
) error {
	id, err := uuid.Parse(c.Param("rideID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid ride ID")
	}

	ride, err := op(c.Request().Context(), id)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, message, ride)
}
