package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/apperr"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// SuccessResponse sends a success response with data
func SuccessResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseHandler sends an error response
func ErrorResponseHandler(c echo.Context, statusCode int, errorMessage string) error {
	return c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   errorMessage,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, errorMessage string) error {
	return ErrorResponseHandler(c, http.StatusBadRequest, errorMessage)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Unauthorized"
	}
	return ErrorResponseHandler(c, http.StatusUnauthorized, errorMessage)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Resource not found"
	}
	return ErrorResponseHandler(c, http.StatusNotFound, errorMessage)
}

// InternalServerErrorResponse sends a 500 Internal Server Error response
func InternalServerErrorResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Internal server error"
	}
	return ErrorResponseHandler(c, http.StatusInternalServerError, errorMessage)
}

// DomainErrorResponse maps a domain error to its HTTP status and envelope.
// Unrecognized errors fall through as 500s without leaking internals.
func DomainErrorResponse(c echo.Context, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return InternalServerErrorResponse(c, "internal error")
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperr.CodeInvalidLocation, apperr.CodeMissingRequiredFields, apperr.CodeInvalidSurge:
		status = http.StatusBadRequest
	case apperr.CodeRideNotFound:
		status = http.StatusNotFound
	case apperr.CodeInvalidRideStatus, apperr.CodeInvalidTransition,
		apperr.CodeRideNotCapturable, apperr.CodeActiveRideExists:
		status = http.StatusConflict
	case apperr.CodeNoDriversAvailable:
		status = http.StatusOK // availability is a first-class result, not a failure
	case apperr.CodeRateLimited:
		status = http.StatusTooManyRequests
	case apperr.CodePaymentDeclined:
		status = http.StatusPaymentRequired
	case apperr.CodeProviderUnavailable:
		status = http.StatusBadGateway
	}

	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Detail:  appErr,
	})
}
