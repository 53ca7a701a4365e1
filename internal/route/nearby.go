package route

import (
	"context"
	"sort"

	"backend-letterwalk/internal/shared/geo"
)

type NearbyWaypoint struct {
	RouteID   string   `json:"route_id"`
	Waypoint  Waypoint `json:"waypoint"`
	DistanceM float64  `json:"distance_m"`
}

// Nearby lists waypoints of every catalog route within radiusM of at,
// nearest first. A shape shared by two slots is reported once per slot.
func Nearby(ctx context.Context, catalog Catalog, at geo.Coordinate, radiusM float64) ([]NearbyWaypoint, error) {
	routes, err := catalog.Routes(ctx)
	if err != nil {
		return nil, err
	}
	out := []NearbyWaypoint{}
	for _, r := range routes {
		for _, wp := range r.Waypoints {
			d := geo.DistanceMeters(at, wp.Location)
			if d <= radiusM {
				out = append(out, NearbyWaypoint{RouteID: r.ID, Waypoint: wp, DistanceM: d})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	return out, nil
}
