// Package http exposes payment settlement over HTTP.
package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/utils"
	"github.com/danisworo/jalur/services/payment"
)

// PaymentsHandler handles HTTP requests for settlement operations
type PaymentsHandler struct {
	paymentUC payment.PaymentUC
}

// NewPaymentsHandler creates a new payment HTTP handler
func NewPaymentsHandler(paymentUC payment.PaymentUC) *PaymentsHandler {
	return &PaymentsHandler{paymentUC: paymentUC}
}

// Capture handles the fare capture request.
func (h *PaymentsHandler) Capture(c echo.Context) error {
	var req payment.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}

	result, err := h.paymentUC.Capture(c.Request().Context(), req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if !result.Success {
		// declines are answered 402 with the structured reason
		return c.JSON(http.StatusPaymentRequired, result)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Payment captured", result)
}

// AddTip handles the post-ride tip request.
func (h *PaymentsHandler) AddTip(c echo.Context) error {
	rideID, err := uuid.Parse(c.Param("rideID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid ride ID")
	}

	var req payment.TipRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}
	req.RideID = rideID

	result, err := h.paymentUC.AddTip(c.Request().Context(), req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if !result.Success {
		return c.JSON(http.StatusPaymentRequired, result)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Tip added", result)
}

// Refund handles the refund request.
func (h *PaymentsHandler) Refund(c echo.Context) error {
	rideID, err := uuid.Parse(c.Param("rideID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid ride ID")
	}

	var req payment.RefundRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
	}
	req.RideID = rideID

	result, err := h.paymentUC.Refund(c.Request().Context(), req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if !result.Success {
		return c.JSON(http.StatusPaymentRequired, result)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Refund processed", result)
}
