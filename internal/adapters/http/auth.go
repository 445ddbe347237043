package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

const sessionLocal = "session"

// RequireSession resolves the bearer token to a signed-in session and stores
// it for the handlers that follow.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		sess, err := deps.Auth.Resolve(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}
		c.Locals(sessionLocal, sess)
		c.Set("Cache-Control", "private, no-store")
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func currentSession(c *fiber.Ctx) *domain.AuthSession {
	sess, _ := c.Locals(sessionLocal).(*domain.AuthSession)
	return sess
}

type signinRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// SigninHandler signs in with an email, phone or username.
func SigninHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signinRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
			return errBadRequest(c, "identifier and password are required")
		}

		sess, err := deps.Auth.Login(c.UserContext(), req.Identifier, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sess)
	}
}

// SignupHandler creates a farmer account and signs it in.
func SignupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form domain.SignupForm
		if err := c.BodyParser(&form); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sess, err := deps.Auth.Register(c.UserContext(), form)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// LogoutHandler forgets the caller's session.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Auth.Logout(c.UserContext(), currentSession(c).Token); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeHandler returns the signed-in user.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(currentSession(c).User)
	}
}
