package backend

import (
	"strings"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/shared/geo"
)

type Waypoint struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Type              string   `json:"type"`
	Lat               float64  `json:"lat"`
	Lon               float64  `json:"lon"`
	AvailableBikes    *int     `json:"available_bikes,omitempty"`
	NearbyAttractions []string `json:"nearby_attractions,omitempty"`
}

// RouteDetail is the route backend's definition payload. Geometry points
// are [lat, lon] pairs.
type RouteDetail struct {
	Shape         string      `json:"shape"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	RouteGeometry [][]float64 `json:"route_geometry"`
	Waypoints     []Waypoint  `json:"waypoints"`
	DistanceKm    float64     `json:"distance_km"`
	DurationMin   float64     `json:"duration_min"`
	CompletedTime *string     `json:"completed_time,omitempty"`
	DurationHours *float64    `json:"duration_hours,omitempty"`
}

func (d RouteDetail) Route() route.Route {
	r := route.Route{
		ID:          strings.ToUpper(d.Shape),
		Shape:       strings.ToUpper(d.Shape),
		Name:        d.Name,
		Description: d.Description,
		DistanceKm:  d.DistanceKm,
		DurationMin: d.DurationMin,
	}
	for _, p := range d.RouteGeometry {
		if len(p) < 2 {
			continue
		}
		r.Geometry = append(r.Geometry, geo.Coordinate{Lat: p[0], Lon: p[1]})
	}
	for _, w := range d.Waypoints {
		r.Waypoints = append(r.Waypoints, route.Waypoint{
			ID:                w.ID,
			Name:              w.Name,
			Description:       w.Description,
			Category:          route.NormalizeCategory(w.Type),
			Location:          geo.Coordinate{Lat: w.Lat, Lon: w.Lon},
			AvailableCount:    w.AvailableBikes,
			NearbyAttractions: w.NearbyAttractions,
		})
	}
	if r.DistanceKm == 0 && len(r.Geometry) > 1 {
		r.DistanceKm = geo.PathMeters(r.Geometry) / 1000
	}
	return r
}

type CheckInRequest struct {
	UserID     string  `json:"userId"`
	WaypointID string  `json:"waypointId"`
	Shape      string  `json:"shape"`
	UserLat    float64 `json:"userLat"`
	UserLon    float64 `json:"userLon"`
}

type CheckInResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Distance  float64 `json:"distance"`
	Verified  bool    `json:"verified"`
	Timestamp string  `json:"timestamp"`
}

type sessionRequest struct {
	UserID string `json:"userId"`
	Shape  string `json:"shape"`
}

type ShapeProgress struct {
	Shape              string   `json:"shape"`
	Checkins           []string `json:"checkins"`
	TotalWaypoints     int      `json:"total_waypoints"`
	CompletedWaypoints int      `json:"completed_waypoints"`
	CompletionRate     float64  `json:"completion_rate"`
}

type RemoteCheckIn struct {
	WaypointID string `json:"waypointId"`
	Shape      string `json:"shape"`
	Timestamp  string `json:"timestamp"`
	Verified   bool   `json:"verified"`
}

// UserProgress is the backend's own record of an account's progress.
type UserProgress struct {
	UserID        string          `json:"userId"`
	Progress      []ShapeProgress `json:"progress"`
	Checkins      []RemoteCheckIn `json:"checkins"`
	TotalCheckins int             `json:"total_checkins"`
}
