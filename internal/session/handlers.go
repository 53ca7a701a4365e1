package session

import (
	"context"
	"errors"
	"strconv"

	"backend-letterwalk/internal/auth"
	"backend-letterwalk/internal/route"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, m *Manager, accountMiddleware fiber.Handler) {
	r.Use(accountMiddleware)

	r.Post("/:routeID/start", func(c *fiber.Ctx) error {
		st, err := m.StartRoute(c.Context(), auth.UserID(c), c.Params("routeID"))
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	})

	r.Get("/:routeID", func(c *fiber.Ctx) error {
		st, err := m.Get(c.Context(), auth.UserID(c), c.Params("routeID"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(st)
	})

	r.Delete("/:routeID", func(c *fiber.Ctx) error {
		if err := m.ResetRoute(c.Context(), auth.UserID(c), c.Params("routeID")); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// elapsed seconds once per tick until the session stops running
	r.Get("/:routeID/elapsed", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		_ = m.WatchElapsed(ctx, userID, c.Params("routeID"), func(secs int64) {
			if err := c.WriteMessage(websocket.TextMessage, []byte(strconv.FormatInt(secs, 10))); err != nil {
				cancel()
			}
		})
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, route.ErrRouteNotFound):
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	case errors.Is(err, ErrNotStarted):
		return fiber.NewError(fiber.StatusConflict, "route not started")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
