package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrWaypointNotFound = errors.New("waypoint not found")
)

// Definitions resolves a shape code to its route definition.
type Definitions interface {
	Definition(ctx context.Context, shape string) (Route, error)
}

// Catalog is the read-only reference data consumed by the session core.
type Catalog interface {
	Routes(ctx context.Context) ([]Route, error)
	Route(ctx context.Context, id string) (Route, error)
	Waypoint(ctx context.Context, routeID, waypointID string) (Waypoint, error)
}

// Schedule exposes one Route per slot, keyed by slot id.
type Schedule struct {
	defs  Definitions
	slots []Slot
}

func NewSchedule(defs Definitions, slots []Slot) *Schedule {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &Schedule{defs: defs, slots: slots}
}

func (s *Schedule) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

func (s *Schedule) Routes(ctx context.Context) ([]Route, error) {
	routes := make([]Route, 0, len(s.slots))
	for _, slot := range s.slots {
		r, err := s.resolve(ctx, slot)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func (s *Schedule) Route(ctx context.Context, id string) (Route, error) {
	for _, slot := range s.slots {
		if strings.EqualFold(slot.ID, id) {
			return s.resolve(ctx, slot)
		}
	}
	return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
}

func (s *Schedule) Waypoint(ctx context.Context, routeID, waypointID string) (Waypoint, error) {
	r, err := s.Route(ctx, routeID)
	if err != nil {
		return Waypoint{}, err
	}
	wp, ok := r.Waypoint(waypointID)
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %s/%s", ErrWaypointNotFound, routeID, waypointID)
	}
	return wp, nil
}

func (s *Schedule) resolve(ctx context.Context, slot Slot) (Route, error) {
	def, err := s.defs.Definition(ctx, slot.Shape)
	if err != nil {
		return Route{}, fmt.Errorf("route %s: %w", slot.ID, err)
	}
	def.ID = slot.ID
	def.Shape = slot.Shape
	def.Label = slot.Label
	return def, nil
}

// StaticDefinitions serves definitions held in memory, keyed by shape.
type StaticDefinitions map[string]Route

func (d StaticDefinitions) Definition(_ context.Context, shape string) (Route, error) {
	def, ok := d[strings.ToUpper(shape)]
	if !ok {
		return Route{}, fmt.Errorf("%w: shape %s", ErrRouteNotFound, shape)
	}
	def.Waypoints = append([]Waypoint(nil), def.Waypoints...)
	return def, nil
}
