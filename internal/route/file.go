package route

import (
	"fmt"
	"strings"

	"backend-letterwalk/internal/shared/geo"

	"github.com/spf13/viper"
)

// LoadFile reads route definitions and an optional slot schedule from a
// YAML/JSON/TOML file understood by viper.
func LoadFile(path string) (StaticDefinitions, []Slot, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read route file: %w", err)
	}

	var routes []Route
	if err := v.UnmarshalKey("routes", &routes); err != nil {
		return nil, nil, fmt.Errorf("decode routes: %w", err)
	}
	var slots []Slot
	if err := v.UnmarshalKey("slots", &slots); err != nil {
		return nil, nil, fmt.Errorf("decode slots: %w", err)
	}

	defs := StaticDefinitions{}
	for _, r := range routes {
		if r.Shape == "" {
			return nil, nil, fmt.Errorf("route %q has no shape", r.Name)
		}
		for i := range r.Waypoints {
			r.Waypoints[i].Category = NormalizeCategory(string(r.Waypoints[i].Category))
		}
		if r.DistanceKm == 0 && len(r.Geometry) > 1 {
			r.DistanceKm = geo.PathMeters(r.Geometry) / 1000
		}
		shape := strings.ToUpper(r.Shape)
		r.Shape = shape
		r.ID = shape
		defs[shape] = r
	}
	return defs, slots, nil
}
