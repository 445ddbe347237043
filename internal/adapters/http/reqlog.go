package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// RequestIDLogMiddleware stores a request-scoped logger carrying the Fiber
// request ID in the user context, where logging.FromContext finds it.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := requestID(c)
		if rid == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("request_id", rid)
		c.SetUserContext(logging.WithLogger(c.UserContext(), reqLogger))

		return c.Next()
	}
}
