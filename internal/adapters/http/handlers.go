package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// MapViewHandler returns the map canvas a capture is drawn on.
func MapViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Captures.View()
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(view)
	}
}

type openCaptureRequest struct {
	ID string `json:"id"`
}

// OpenCaptureHandler starts a capture session. An existing id is reopened.
func OpenCaptureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req openCaptureRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		capture, err := deps.Captures.Open(c.UserContext(), req.ID)
		if err != nil {
			return respondError(c, err)
		}
		c.Location("/v1/captures/" + capture.ID)
		return c.Status(fiber.StatusCreated).JSON(capture)
	}
}

// GetCaptureHandler returns a capture session with its latest area.
func GetCaptureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		capture, err := deps.Captures.Get(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(capture)
	}
}

// CloseCaptureHandler discards a capture session.
func CloseCaptureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Captures.Close(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CaptureAreaHandler returns the most recent area of a capture.
func CaptureAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		area, err := deps.Captures.Latest(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(area)
	}
}

// DrawEventHandler applies one draw event and returns its outcome.
func DrawEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ev domain.DrawEvent
		if err := c.BodyParser(&ev); err != nil {
			return errBadRequest(c, "invalid draw event: "+err.Error())
		}

		outcome, err := deps.Captures.HandleEvent(c.UserContext(), c.Params("id"), ev)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(outcome)
	}
}

// RegisterLandHandler sends the capture's latest area to the backend as the
// signed-in farmer's land.
func RegisterLandHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reg, err := deps.Onboarding.Register(c.UserContext(), currentSession(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(reg)
	}
}
