package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// AccessLogMiddleware logs HTTP requests with structured slog output.
// Runs after RequestIDLogMiddleware so each line carries the request ID.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Call next handler
		err := c.Next()

		// Route pattern keeps capture and order ids out of the message
		route := c.Route().Path
		if route == "" {
			route = path
		}

		// Get response details
		status := c.Response().StatusCode()
		latency := time.Since(start)
		bytesOut := len(c.Response().Body())

		// Log attributes
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("latency", latency.String()),
			slog.Int("bytes_out", bytesOut),
		}

		// Determine log level based on status code
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		// Add error if one occurred
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		}

		// The request-scoped logger already carries request_id
		logging.FromContext(c.UserContext()).LogAttrs(c.UserContext(), level, fmt.Sprintf("%s %s", method, route), attrs...)

		return err
	}
}
