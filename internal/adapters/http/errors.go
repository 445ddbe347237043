package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/adapters/backend"
	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int               `json:"status"`
	Code      string            `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string            `json:"message"` // Human-readable message
	Help      string            `json:"help,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals("requestid").(string)
	return reqID
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// respondError maps a use-case error onto the API error shape.
func respondError(c *fiber.Ctx, err error) error {
	var (
		cfgErr *domain.ConfigError
		valErr *domain.ValidationError
		reqErr *backend.RequestError
	)
	switch {
	case errors.As(err, &cfgErr):
		return c.Status(503).JSON(APIError{
			Status:    503,
			Code:      "map_not_configured",
			Message:   cfgErr.Error(),
			Help:      cfgErr.Help,
			RequestID: requestID(c),
		})
	case errors.As(err, &valErr):
		return c.Status(400).JSON(APIError{
			Status:    400,
			Code:      "validation_failed",
			Message:   "validation failed",
			Fields:    valErr.Fields,
			RequestID: requestID(c),
		})
	case errors.Is(err, domain.ErrCaptureNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrNoArea):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidPolygon):
		return newError(c, 422, "invalid_polygon", err.Error())
	case errors.Is(err, domain.ErrInvalidEvent):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrRejected):
		return newError(c, 422, "rejected", err.Error())
	case errors.Is(err, domain.ErrAuthRejected), errors.Is(err, domain.ErrSessionUnknown):
		return errUnauthorized(c, err.Error())
	case errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500:
		return newError(c, reqErr.Status, "upstream_rejected", reqErr.Error())
	case errors.As(err, &reqErr), errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrInvalidResponse):
		logging.FromContext(c.UserContext()).Warn("backend call failed", "error", err)
		return newError(c, 502, "upstream_error", err.Error())
	}
	logging.FromContext(c.UserContext()).Error("request failed", "error", err)
	return errInternal(c, "internal error")
}
