package geo

import "math"

// EarthRadiusM is the mean earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

type Coordinate struct {
	Lat float64 `json:"lat" mapstructure:"lat" validate:"latitude"`
	Lon float64 `json:"lon" mapstructure:"lon" validate:"longitude"`
}

func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceMeters(Coordinate{Lat: lat1, Lon: lng1}, Coordinate{Lat: lat2, Lon: lng2}) / 1000
}

// PathMeters sums the segment lengths of an ordered polyline.
func PathMeters(points []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
