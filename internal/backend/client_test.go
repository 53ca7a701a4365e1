package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
}

func (f *fakeBackend) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
	}
	mux.HandleFunc("/api/v1/route/T", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(RouteDetail{
			Shape:         "T",
			Name:          "T route",
			RouteGeometry: [][]float64{{25.0330, 121.5654}, {25.0340, 121.5654}},
			Waypoints: []Waypoint{
				{ID: "w1", Name: "Station", Type: "youbike", Lat: 25.0330, Lon: 121.5654, AvailableBikes: intPtr(4)},
				{ID: "w2", Name: "Museum", Type: "attraction", Lat: 25.0340, Lon: 121.5654},
			},
		})
	})
	mux.HandleFunc("/api/v1/checkin", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(CheckInResponse{Success: true, Verified: true, Message: "ok"})
	})
	mux.HandleFunc("/api/v1/route/start", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	})
	mux.HandleFunc("/api/v1/route/complete", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("db down"))
	})
	mux.HandleFunc("/api/v1/progress/user-1", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(UserProgress{
			UserID:        "user-1",
			Progress:      []ShapeProgress{{Shape: "T", Checkins: []string{"w1"}, TotalWaypoints: 2, CompletedWaypoints: 1, CompletionRate: 0.5}},
			TotalCheckins: 1,
		})
	})
	mux.HandleFunc("/api/v1/certificate/user-1/E", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/api/v1/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	return mux
}

func intPtr(v int) *int { return &v }

func newClient(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, nil), fb
}

func TestDefinition(t *testing.T) {
	c, _ := newClient(t)
	r, err := c.Definition(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "T", r.Shape)
	require.Len(t, r.Waypoints, 2)
	assert.Equal(t, route.TransitSharePoint, r.Waypoints[0].Category)
	assert.Equal(t, route.Attraction, r.Waypoints[1].Category)
	require.NotNil(t, r.Waypoints[0].AvailableCount)
	assert.Equal(t, 4, *r.Waypoints[0].AvailableCount)
	assert.Equal(t, geo.Coordinate{Lat: 25.0340, Lon: 121.5654}, r.Geometry[1])
	assert.InDelta(t, 0.111, r.DistanceKm, 0.001)

	_, err = c.Definition(context.Background(), "Q")
	assert.ErrorIs(t, err, route.ErrRouteNotFound)
}

func TestDefinitionsBackSchedule(t *testing.T) {
	c, _ := newClient(t)
	catalog := route.NewSchedule(c, []route.Slot{{ID: "T", Label: "Week 1", Shape: "T"}})
	wp, err := catalog.Waypoint(context.Background(), "T", "w2")
	require.NoError(t, err)
	assert.Equal(t, "Museum", wp.Name)
}

func TestMirrorCalls(t *testing.T) {
	c, fb := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.StartRoute(ctx, "user-1", "T"))
	last := fb.last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/api/v1/route/start", last.Path)
	assert.Equal(t, map[string]interface{}{"userId": "user-1", "shape": "T"}, last.Body)

	require.NoError(t, c.CheckIn(ctx, "user-1", "T", "w1", geo.Coordinate{Lat: 25.03, Lon: 121.56}))
	last = fb.last()
	assert.Equal(t, "/api/v1/checkin", last.Path)
	assert.Equal(t, "w1", last.Body["waypointId"])
	assert.Equal(t, 25.03, last.Body["userLat"])

	err := c.CompleteRoute(ctx, "user-1", "T")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "db down", statusErr.Body)
}

func TestProgressAndCertificate(t *testing.T) {
	c, fb := newClient(t)
	ctx := context.Background()

	p, err := c.Progress(ctx, "user-1", "t")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalCheckins)
	assert.Equal(t, 0.5, p.Progress[0].CompletionRate)
	assert.Equal(t, "shape=T", fb.last().Query)

	cert, err := c.RequestCertificate(ctx, "user-1", "e")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, cert)
}

func TestTimeoutAndContext(t *testing.T) {
	c, _ := newClient(t)
	c.timeout = 20 * time.Millisecond
	err := c.do(context.Background(), fiber.Get(c.url("/api/v1/slow")), nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.StartRoute(ctx, "user-1", "T"), context.Canceled)
}

func TestBackendProgressHandler(t *testing.T) {
	c, _ := newClient(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/backend"), c, func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", "user-1")
		return ctx.Next()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/backend/progress", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p UserProgress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, "user-1", p.UserID)
}
