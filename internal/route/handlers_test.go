package route

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/tkrajina/gpxgo/gpx"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	catalog := NewSchedule(testDefinitions(), []Slot{{ID: "T", Label: "Week 1", Shape: "T"}, {ID: "I2", Label: "Week 6", Shape: "I"}})
	RegisterRoutes(app.Group("/routes"), catalog)
	return app
}

func TestRouteHandlers(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/routes/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list routes status: %v", err)
	}
	var routes []Route
	if err := json.NewDecoder(resp.Body).Decode(&routes); err != nil || len(routes) != 2 {
		t.Fatalf("decode routes: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/routes/I2", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get route status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/routes/Z", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestRouteHandlersGPX(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/routes/T/gpx", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("gpx status: %v", err)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "gpx") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	doc, err := gpx.ParseBytes(body)
	if err != nil {
		t.Fatalf("parse gpx: %v", err)
	}
	if len(doc.Waypoints) != 2 || doc.Waypoints[0].Name != "One" {
		t.Fatalf("unexpected gpx waypoints %+v", doc.Waypoints)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/routes/Z/gpx", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestRouteHandlersNearby(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/routes/nearby?lat=25.0330&lon=121.5654&radius_km=0.5", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("nearby status: %v", err)
	}
	var found []NearbyWaypoint
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		t.Fatalf("decode nearby: %v", err)
	}
	if len(found) != 2 || found[0].Waypoint.ID != "wp-1" || found[1].Waypoint.ID != "wp-2" {
		t.Fatalf("unexpected nearby result %+v", found)
	}
	if found[0].DistanceM != 0 || found[1].DistanceM < 100 || found[1].DistanceM > 120 {
		t.Fatalf("unexpected distances %+v", found)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/routes/nearby?lat=25.0330", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request without lon")
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/routes/nearby?lat=25.0330&lon=121.5654&radius_km=-1", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for negative radius")
	}
}
