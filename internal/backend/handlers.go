package backend

import (
	"errors"

	"backend-letterwalk/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes the backend's own view of the account, for
// comparing it with locally derived progress.
func RegisterRoutes(r fiber.Router, c *Client, accountMiddleware fiber.Handler) {
	r.Get("/progress", accountMiddleware, func(ctx *fiber.Ctx) error {
		progress, err := c.Progress(ctx.Context(), auth.UserID(ctx), ctx.Query("shape"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no progress recorded by backend")
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return ctx.JSON(progress)
	})
}
