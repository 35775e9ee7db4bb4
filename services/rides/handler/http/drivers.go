package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/internal/utils"
	"github.com/danisworo/jalur/services/match"
)

// DriversHandler handles internal driver pool updates
type DriversHandler struct {
	pool match.DriverPoolRepo
}

// NewDriversHandler creates a new driver pool HTTP handler
func NewDriversHandler(pool match.DriverPoolRepo) *DriversHandler {
	return &DriversHandler{pool: pool}
}

// UpsertDriver handles a full driver snapshot from the driver-facing
// services, refreshing position, metadata and availability.
func (h *DriversHandler) UpsertDriver(c echo.Context) error {
	var driver models.Driver
	if err := c.Bind(&driver); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	driver.ID = c.Param("driverID")
	if driver.ID == "" {
		return utils.BadRequestResponse(c, "Driver ID is required")
	}
	if !driver.CurrentLocation.Valid() {
		return utils.BadRequestResponse(c, "Driver location is invalid")
	}

	if err := h.pool.UpsertDriver(c.Request().Context(), &driver); err != nil {
		return utils.InternalServerErrorResponse(c, "Failed to update driver")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver updated", nil)
}

// UpdateDriverStatus handles a lightweight status flip without a full
// snapshot.
func (h *DriversHandler) UpdateDriverStatus(c echo.Context) error {
	var update models.DriverStatusUpdate
	if err := c.Bind(&update); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	driverID := c.Param("driverID")
	if driverID == "" {
		return utils.BadRequestResponse(c, "Driver ID is required")
	}

	if err := h.pool.UpdateDriverStatus(c.Request().Context(), driverID, update.Status); err != nil {
		return utils.InternalServerErrorResponse(c, "Failed to update driver status")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver status updated", nil)
}
