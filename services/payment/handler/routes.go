// Package handler wires the payment service's HTTP routes.
package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/middleware"
	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/services/payment"
	httpHandler "github.com/danisworo/jalur/services/payment/handler/http"
)

// Handler combines the payment service's handlers
type Handler struct {
	paymentsHTTP *httpHandler.PaymentsHandler
	cfg          *models.Config
}

// NewHandler creates a new payment handler
func NewHandler(cfg *models.Config, paymentUC payment.PaymentUC) *Handler {
	return &Handler{
		paymentsHTTP: httpHandler.NewPaymentsHandler(paymentUC),
		cfg:          cfg,
	}
}

// RegisterRoutes registers the rider-facing payment routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	paymentGroup := e.Group("/payments", middleware.JWTAuthMiddleware(h.cfg.JWT))
	paymentGroup.POST("/capture", h.paymentsHTTP.Capture)
	paymentGroup.POST("/:rideID/tip", h.paymentsHTTP.AddTip)
	paymentGroup.POST("/:rideID/refund", h.paymentsHTTP.Refund)
}
