package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// PlaceOrderHandler orders the products of one recommendation.
func PlaceOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rec domain.Recommendation
		if err := c.BodyParser(&rec); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		res, err := deps.Dashboard.PlaceOrder(c.UserContext(), currentSession(c), rec)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

type automatedOrderRequest struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// AutomatedOrderHandler lets the agent order every recommendation at once.
// An empty body orders the current recommendations.
func AutomatedOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req automatedOrderRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}
		res, err := deps.Dashboard.ExecuteOrdering(c.UserContext(), currentSession(c), req.Recommendations)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// ListOrdersHandler returns the farmer's orders, paginated.
func ListOrdersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := deps.Orders.List(c.UserContext(), currentSession(c))
		if err != nil {
			return respondError(c, err)
		}
		return paginated(c, orders)
	}
}

// OrderHistoryHandler returns the farmer's order history, paginated.
func OrderHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := deps.Orders.History(c.UserContext(), currentSession(c))
		if err != nil {
			return respondError(c, err)
		}
		return paginated(c, orders)
	}
}

// GetOrderHandler returns one order.
func GetOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := deps.Orders.Get(c.UserContext(), currentSession(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatusHandler moves an order to a new status.
func UpdateOrderStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req orderStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		order, err := deps.Orders.UpdateStatus(c.UserContext(), currentSession(c), c.Params("id"), req.Status)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	}
}

// AddOrderItemHandler appends an item to an order.
func AddOrderItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item domain.OrderItem
		if err := c.BodyParser(&item); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		order, err := deps.Orders.AddItem(c.UserContext(), currentSession(c), c.Params("id"), item)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	}
}

// DeleteOrderHandler cancels and removes an order.
func DeleteOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Orders.Delete(c.UserContext(), currentSession(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
