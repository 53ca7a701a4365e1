package checkin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	v, _ := newVerifier(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/checkins"), v, testOptions(), func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	return app
}

func post(t *testing.T, app *fiber.App, body map[string]interface{}) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/checkins/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return resp
}

func stamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

func TestCheckInHandlerAccepted(t *testing.T) {
	resp := post(t, newApp(t), map[string]interface{}{
		"route_id":    "T",
		"waypoint_id": "w1",
		"lat":         near101.Lat,
		"lon":         near101.Lon,
		"captured_at": stamp(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || !out.Verified {
		t.Fatalf("expected verified check-in, got %+v", out)
	}
}

func TestCheckInHandlerTooFar(t *testing.T) {
	resp := post(t, newApp(t), map[string]interface{}{
		"route_id": "T", "waypoint_id": "w1", "lat": far101.Lat, "lon": far101.Lon, "captured_at": stamp(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out Outcome
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out.Verified || out.Distance < 499 {
		t.Fatalf("expected rejection with distance, got %+v", out)
	}
}

func TestCheckInHandlerLocationErrors(t *testing.T) {
	app := newApp(t)
	cases := map[string]map[string]interface{}{
		"permission_denied":    {"route_id": "T", "waypoint_id": "w1", "location_error_code": 1},
		"timeout":              {"route_id": "T", "waypoint_id": "w1", "location_error_code": 3},
		"unsupported":          {"route_id": "T", "waypoint_id": "w1"},
		"position_unavailable": {"route_id": "T", "waypoint_id": "w1", "lat": near101.Lat, "lon": near101.Lon, "captured_at": time.Now().Add(-time.Hour).Format(time.RFC3339)},
	}
	for kind, body := range cases {
		resp := post(t, app, body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", kind, resp.StatusCode)
		}
		var payload map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload["error"] != kind || payload["message"] == "" {
			t.Fatalf("%s: unexpected payload %v", kind, payload)
		}
	}
}

func TestCheckInHandlerUnstampedFix(t *testing.T) {
	resp := post(t, newApp(t), map[string]interface{}{
		"route_id": "T", "waypoint_id": "w1", "lat": near101.Lat, "lon": near101.Lon,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a fix without captured_at, got %d", resp.StatusCode)
	}
	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload["error"] != "position_unavailable" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestCheckInHandlerStatusMapping(t *testing.T) {
	app := newApp(t)
	cases := []struct {
		body map[string]interface{}
		want int
	}{
		{map[string]interface{}{"route_id": "T", "waypoint_id": "zz", "lat": near101.Lat, "lon": near101.Lon, "captured_at": stamp()}, http.StatusNotFound},
		{map[string]interface{}{"route_id": "Q", "waypoint_id": "w1", "lat": near101.Lat, "lon": near101.Lon, "captured_at": stamp()}, http.StatusNotFound},
		{map[string]interface{}{"waypoint_id": "w1", "lat": near101.Lat, "lon": near101.Lon, "captured_at": stamp()}, http.StatusBadRequest},
		{map[string]interface{}{"route_id": "T", "waypoint_id": "w1", "lat": 95.0, "lon": near101.Lon, "captured_at": stamp()}, http.StatusBadRequest},
		{map[string]interface{}{"route_id": "T", "waypoint_id": "w1", "location_error_code": 7}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if resp := post(t, app, tc.body); resp.StatusCode != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.body, tc.want, resp.StatusCode)
		}
	}
}

func TestCheckInHandlerNotStarted(t *testing.T) {
	v, _ := newVerifier(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/checkins"), v, testOptions(), func(c *fiber.Ctx) error {
		c.Locals("user_id", "someone-else")
		return c.Next()
	})
	resp := post(t, app, map[string]interface{}{"route_id": "T", "waypoint_id": "w1", "lat": near101.Lat, "lon": near101.Lon, "captured_at": stamp()})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
