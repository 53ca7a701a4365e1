package progress

import (
	"errors"

	"backend-letterwalk/internal/auth"
	"backend-letterwalk/internal/route"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, agg *Aggregator, accountMiddleware fiber.Handler) {
	r.Get("/", accountMiddleware, func(c *fiber.Ctx) error {
		snap, err := agg.Aggregate(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(snap)
	})

	r.Get("/:routeID", accountMiddleware, func(c *fiber.Ctx) error {
		rp, err := agg.Route(c.Context(), auth.UserID(c), c.Params("routeID"))
		if err != nil {
			if errors.Is(err, route.ErrRouteNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "route not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(rp)
	})
}
