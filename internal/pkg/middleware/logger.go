package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/observability"
)

// RequestLogger logs each request with latency and status, and records the
// request metrics.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status

			logger.Info("request",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				logger.Int("status", status),
				logger.Duration("latency", latency),
				logger.String("remote_ip", c.RealIP()),
			)

			observability.ObserveHTTPRequest(c.Request().Method, c.Path(), status, latency)

			return err
		}
	}
}
