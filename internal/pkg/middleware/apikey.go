package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/models"
	"github.com/danisworo/jalur/internal/utils"
)

// APIKeyMiddleware guards internal service-to-service routes with a shared
// key carried in the X-API-Key header.
func APIKeyMiddleware(config models.APIKeyConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("X-API-Key")
			if key == "" {
				return utils.UnauthorizedResponse(c, "API key is required")
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(config.InternalKey)) != 1 {
				return utils.UnauthorizedResponse(c, "Invalid API key")
			}
			return next(c)
		}
	}
}
