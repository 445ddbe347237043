package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// DashboardHandler returns the land analysis, recommendations and recent orders.
func DashboardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Dashboard.Load(c.UserContext(), currentSession(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

// RecommendationsHandler returns the current input recommendations.
func RecommendationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := deps.Dashboard.Recommendations(c.UserContext(), currentSession(c))
		if err != nil {
			return respondError(c, err)
		}
		if recs == nil {
			recs = []domain.Recommendation{}
		}
		return c.JSON(recs)
	}
}
