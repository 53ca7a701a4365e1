package route

import "backend-letterwalk/internal/shared/geo"

type Category string

const (
	TransitSharePoint Category = "transit-share-point"
	Attraction        Category = "attraction"
)

type Waypoint struct {
	ID                string         `json:"id" mapstructure:"id"`
	Name              string         `json:"name" mapstructure:"name"`
	Description       string         `json:"description" mapstructure:"description"`
	Category          Category       `json:"category" mapstructure:"category"`
	Location          geo.Coordinate `json:"location" mapstructure:"location"`
	AvailableCount    *int           `json:"available_count,omitempty" mapstructure:"available_count"`
	NearbyAttractions []string       `json:"nearby_attractions,omitempty" mapstructure:"nearby_attractions"`
}

// Route is one progress slot backed by a letter-shaped route definition.
type Route struct {
	ID          string           `json:"id" mapstructure:"id"`
	Shape       string           `json:"shape" mapstructure:"shape"`
	Label       string           `json:"label,omitempty" mapstructure:"label"`
	Name        string           `json:"name" mapstructure:"name"`
	Description string           `json:"description" mapstructure:"description"`
	Waypoints   []Waypoint       `json:"waypoints" mapstructure:"waypoints"`
	Geometry    []geo.Coordinate `json:"geometry" mapstructure:"geometry"`
	DistanceKm  float64          `json:"distance_km" mapstructure:"distance_km"`
	DurationMin float64          `json:"duration_min" mapstructure:"duration_min"`
}

func (r Route) Waypoint(id string) (Waypoint, bool) {
	for _, wp := range r.Waypoints {
		if wp.ID == id {
			return wp, true
		}
	}
	return Waypoint{}, false
}

func (r Route) WaypointIDs() []string {
	ids := make([]string, 0, len(r.Waypoints))
	for _, wp := range r.Waypoints {
		ids = append(ids, wp.ID)
	}
	return ids
}

// Slot is a display/progress slot. Two slots may share one shape.
type Slot struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
	Shape string `json:"shape" mapstructure:"shape"`
}

var DefaultSlots = []Slot{
	{ID: "T", Label: "Week 1", Shape: "T"},
	{ID: "A", Label: "Week 2", Shape: "A"},
	{ID: "I", Label: "Week 3", Shape: "I"},
	{ID: "P", Label: "Week 4", Shape: "P"},
	{ID: "E", Label: "Week 5", Shape: "E"},
	{ID: "I2", Label: "Week 6", Shape: "I"},
}

// NormalizeCategory accepts the legacy "youbike" type used by the route backend.
func NormalizeCategory(raw string) Category {
	switch raw {
	case "youbike", "bike", string(TransitSharePoint):
		return TransitSharePoint
	default:
		return Attraction
	}
}
