package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	applogger "FinNarrative/pkg/logger"
)

// quietPaths are probe endpoints logged at debug level.
var quietPaths = map[string]bool{"/healthz": true, "/metrics": true}

// RequestLogging assigns a request id (kept from X-Request-ID when the
// client sends one) and logs one line per request, at warn for 4xx and
// error for 5xx.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	l = l.Component("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("request_id", id),
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if sym := c.Param("symbol"); sym != "" {
				fields = append(fields, applogger.String("symbol", sym))
			}

			switch {
			case status >= 500:
				l.Error("http request", fields...)
			case status >= 400:
				l.Warn("http request", fields...)
			case quietPaths[c.Path()]:
				l.Debug("http request", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
