package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend-letterwalk/internal/db"

	"github.com/jackc/pgx/v5"
)

// Service loads route definitions from Postgres.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Definition(ctx context.Context, shape string) (Route, error) {
	shape = strings.ToUpper(shape)
	row := s.db.QueryRow(ctx, `
		SELECT shape, name, description, COALESCE(distance_km,0), COALESCE(duration_min,0), COALESCE(geometry, '[]'::jsonb)
		FROM routes WHERE shape=$1
	`, shape)

	var r Route
	var geometry []byte
	if err := row.Scan(&r.Shape, &r.Name, &r.Description, &r.DistanceKm, &r.DurationMin, &geometry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, fmt.Errorf("%w: shape %s", ErrRouteNotFound, shape)
		}
		return Route{}, err
	}
	if len(geometry) > 0 {
		if err := json.Unmarshal(geometry, &r.Geometry); err != nil {
			return Route{}, fmt.Errorf("decode geometry for %s: %w", shape, err)
		}
	}
	r.ID = r.Shape

	waypoints, err := s.waypoints(ctx, shape)
	if err != nil {
		return Route{}, err
	}
	r.Waypoints = waypoints
	return r, nil
}

func (s *Service) waypoints(ctx context.Context, shape string) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, category, ST_Y(location::geometry), ST_X(location::geometry),
		       available_count, COALESCE(nearby_attractions, '{}')
		FROM route_waypoints WHERE shape=$1
		ORDER BY position
	`, shape)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var wp Waypoint
		var category string
		if err := rows.Scan(&wp.ID, &wp.Name, &wp.Description, &category, &wp.Location.Lat, &wp.Location.Lon, &wp.AvailableCount, &wp.NearbyAttractions); err != nil {
			return nil, err
		}
		wp.Category = NormalizeCategory(category)
		waypoints = append(waypoints, wp)
	}
	return waypoints, rows.Err()
}
