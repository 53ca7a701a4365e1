package checkin

import (
	"errors"
	"time"

	"backend-letterwalk/internal/auth"
	"backend-letterwalk/internal/geolocation"
	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Request carries either the device's position fix or the error code the
// device reported instead of one.
type Request struct {
	RouteID           string    `json:"route_id" validate:"required"`
	WaypointID        string    `json:"waypoint_id" validate:"required"`
	Lat               *float64  `json:"lat" validate:"omitempty,latitude"`
	Lon               *float64  `json:"lon" validate:"omitempty,longitude"`
	AccuracyM         float64   `json:"accuracy_m" validate:"gte=0"`
	CapturedAt        time.Time `json:"captured_at"`
	LocationErrorCode int       `json:"location_error_code" validate:"gte=0,lte=3"`
}

func (r Request) fix() geolocation.ReportedFix {
	return geolocation.ReportedFix{
		Lat:        r.Lat,
		Lon:        r.Lon,
		AccuracyM:  r.AccuracyM,
		CapturedAt: r.CapturedAt,
		ErrorCode:  r.LocationErrorCode,
	}
}

func RegisterRoutes(r fiber.Router, v *Verifier, opts geolocation.Options, accountMiddleware fiber.Handler) {
	r.Post("/", accountMiddleware, func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locator := geolocation.NewLocator(req.fix(), opts)
		out, err := v.CheckInWithProvider(c.Context(), locator, auth.UserID(c), req.RouteID, req.WaypointID)
		if err != nil {
			if locErr, ok := geolocation.AsError(err); ok {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":    string(locErr.Kind),
					"message":  locErr.Guidance(),
					"verified": false,
				})
			}
			return httpError(err)
		}
		return c.JSON(out)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownWaypoint):
		return fiber.NewError(fiber.StatusNotFound, "waypoint not found")
	case errors.Is(err, route.ErrRouteNotFound):
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	case errors.Is(err, session.ErrNotStarted):
		return fiber.NewError(fiber.StatusConflict, "route not started")
	case errors.Is(err, ErrInvalidLocation):
		return fiber.NewError(fiber.StatusBadRequest, "invalid location")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
