package stream

import (
	"errors"
	"net/url"

	"backend-letterwalk/internal/route"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ids are escaped; an empty routeID is the account topic
func Topic(userID, routeID string) string {
	if routeID == "" {
		return "account:" + url.QueryEscape(userID)
	}
	return "route:" + url.QueryEscape(userID) + ":" + url.QueryEscape(routeID)
}

func RegisterRoutes(r fiber.Router, hub *Hub, catalog route.Catalog, accountMiddleware fiber.Handler) {
	r.Use(accountMiddleware)
	r.Get("/ws", websocket.New(serve(hub)))
	r.Get("/ws/:routeID", canonicalRoute(catalog), websocket.New(serve(hub)))
}

func canonicalRoute(catalog route.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := catalog.Route(c.Context(), c.Params("routeID"))
		if errors.Is(err, route.ErrRouteNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "route not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Locals("route_id", rt.ID)
		return c.Next()
	}
}

func serve(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		routeID, _ := c.Locals("route_id").(string)
		client := hub.Register(Topic(userID, routeID))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}
}
