package http

import (
	"github.com/gofiber/fiber/v2"
)

// ListLandsHandler returns the farmer's lands as stored by the backend.
func ListLandsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lands, err := deps.Onboarding.Lands(c.UserContext(), currentSession(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(lands)
	}
}

// LandRegistrationsHandler returns the gateway's own registration ledger for
// the farmer, newest first.
func LandRegistrationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		regs, err := deps.Onboarding.History(c.UserContext(), currentSession(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		if regs == nil {
			return c.JSON([]struct{}{})
		}
		return c.JSON(regs)
	}
}

type satelliteRequest struct {
	PolygonID string `json:"polygonId"`
}

// SatelliteDataHandler fetches satellite imagery data for a registered polygon.
func SatelliteDataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req satelliteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		res, err := deps.Onboarding.SatelliteData(c.UserContext(), currentSession(c), req.PolygonID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}
