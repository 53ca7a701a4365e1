package route

import (
	"errors"

	"backend-letterwalk/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

const defaultNearbyRadiusKm = 1.0

func RegisterRoutes(r fiber.Router, catalog Catalog) {
	r.Get("/", func(c *fiber.Ctx) error {
		routes, err := catalog.Routes(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		at := geo.Coordinate{Lat: c.QueryFloat("lat"), Lon: c.QueryFloat("lon")}
		if c.Query("lat") == "" || c.Query("lon") == "" || !at.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon required")
		}
		radiusKm := c.QueryFloat("radius_km", defaultNearbyRadiusKm)
		if radiusKm <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "radius_km must be positive")
		}
		found, err := Nearby(c.Context(), catalog, at, radiusKm*1000)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(found)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		rt, err := catalog.Route(c.Context(), c.Params("id"))
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(rt)
	})

	r.Get("/:id/gpx", func(c *fiber.Ctx) error {
		rt, err := catalog.Route(c.Context(), c.Params("id"))
		if err != nil {
			return lookupError(err)
		}
		body, err := ToGPX(rt)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+rt.ID+`.gpx"`)
		return c.Send(body)
	})
}

func lookupError(err error) error {
	if errors.Is(err, ErrRouteNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
