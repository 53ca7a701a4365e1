package progress

import (
	"time"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/session"
	"backend-letterwalk/internal/store"
)

type RouteProgress struct {
	RouteID            string       `json:"route_id"`
	Shape              string       `json:"shape"`
	Label              string       `json:"label,omitempty"`
	Status             store.Status `json:"status"`
	Checkins           []string     `json:"checkins"`
	TotalWaypoints     int          `json:"total_waypoints"`
	CompletedWaypoints int          `json:"completed_waypoints"`
	CompletionRate     float64      `json:"completion_rate"`
	ElapsedSeconds     int64        `json:"elapsed_seconds"`
	DurationHours      *float64     `json:"duration_hours,omitempty"`
	CompletedTime      *time.Time   `json:"completed_time,omitempty"`
}

// Snapshot is derived on every request and never stored.
type Snapshot struct {
	UserID                string          `json:"user_id"`
	Routes                []RouteProgress `json:"progress"`
	TotalRoutesCompleted  int             `json:"total_routes_completed"`
	TotalWaypointsVisited int             `json:"total_waypoints_visited"`
	AllComplete           bool            `json:"all_complete"`
}

// Compute derives the snapshot for the given routes from their stored
// states, keyed by route id. Missing states count as not started.
func Compute(userID string, routes []route.Route, states map[string]store.State, now time.Time) Snapshot {
	snap := Snapshot{UserID: userID, Routes: make([]RouteProgress, 0, len(routes))}
	for _, r := range routes {
		st, ok := states[r.ID]
		if !ok {
			st = store.Empty(store.Key{UserID: userID, RouteID: r.ID})
		}
		rp := ComputeRoute(r, st, now)
		snap.Routes = append(snap.Routes, rp)
		snap.TotalWaypointsVisited += rp.CompletedWaypoints
		if rp.Status == store.Completed {
			snap.TotalRoutesCompleted++
		}
	}
	snap.AllComplete = len(routes) > 0 && snap.TotalRoutesCompleted == len(routes)
	return snap
}

func ComputeRoute(r route.Route, st store.State, now time.Time) RouteProgress {
	checkins := st.CheckinWaypointIDs()
	rp := RouteProgress{
		RouteID:            r.ID,
		Shape:              r.Shape,
		Label:              r.Label,
		Status:             st.Status,
		Checkins:           checkins,
		TotalWaypoints:     len(r.Waypoints),
		CompletedWaypoints: len(checkins),
		CompletionRate:     rate(len(checkins), len(r.Waypoints)),
		ElapsedSeconds:     session.Elapsed(st, now),
	}
	if rp.Status == "" {
		rp.Status = store.NotStarted
	}
	if st.Status == store.Completed {
		hours := float64(rp.ElapsedSeconds) / 3600
		rp.DurationHours = &hours
		if st.CompletedAt != nil {
			t := *st.CompletedAt
			rp.CompletedTime = &t
		}
	}
	return rp
}

func rate(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(done) / float64(total)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}
