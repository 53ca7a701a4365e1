package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMetersSymmetricAndZero(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Lat: 25.0330, Lon: 121.5654}, {Lat: 25.0331, Lon: 121.5655}},
		{{Lat: -33.8688, Lon: 151.2093}, {Lat: 51.5074, Lon: -0.1278}},
		{{Lat: 0, Lon: 179.9}, {Lat: 0, Lon: -179.9}},
		{{Lat: 89.9, Lon: 0}, {Lat: -89.9, Lon: 180}},
	}
	for _, p := range pairs {
		if DistanceMeters(p[0], p[1]) != DistanceMeters(p[1], p[0]) {
			t.Fatalf("distance not symmetric for %v", p)
		}
		if DistanceMeters(p[0], p[0]) != 0 || DistanceMeters(p[1], p[1]) != 0 {
			t.Fatalf("expected zero distance for identical points %v", p)
		}
	}
}

func TestDistanceMetersTaipeiScenario(t *testing.T) {
	waypoint := Coordinate{Lat: 25.0330, Lon: 121.5654}

	near := DistanceMeters(waypoint, Coordinate{Lat: 25.0331, Lon: 121.5655})
	if near < 10 || near > 20 {
		t.Fatalf("expected roughly 15 m, got %v", near)
	}

	// 500 m due north
	offset := 500 / EarthRadiusM * 180 / math.Pi
	far := DistanceMeters(waypoint, Coordinate{Lat: waypoint.Lat + offset, Lon: waypoint.Lon})
	if math.Abs(far-500) > 1 {
		t.Fatalf("expected ~500 m, got %v", far)
	}
}

func TestCoordinateValid(t *testing.T) {
	if !(Coordinate{Lat: 25.03, Lon: 121.56}).Valid() {
		t.Fatalf("expected valid coordinate")
	}
	if (Coordinate{Lat: 91, Lon: 0}).Valid() {
		t.Fatalf("expected invalid latitude")
	}
	if (Coordinate{Lat: 0, Lon: math.NaN()}).Valid() {
		t.Fatalf("expected NaN to be invalid")
	}
}

func TestPathMeters(t *testing.T) {
	a := Coordinate{Lat: 25.0330, Lon: 121.5654}
	b := Coordinate{Lat: 25.0340, Lon: 121.5654}
	c := Coordinate{Lat: 25.0350, Lon: 121.5654}
	total := PathMeters([]Coordinate{a, b, c})
	direct := DistanceMeters(a, c)
	if math.Abs(total-direct) > 0.01 {
		t.Fatalf("collinear path %v should match direct %v", total, direct)
	}
	if PathMeters(nil) != 0 {
		t.Fatalf("expected zero for empty path")
	}
}
