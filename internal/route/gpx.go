package route

import (
	"github.com/tkrajina/gpxgo/gpx"
)

// ToGPX renders the display geometry as a track and the waypoints as GPX
// waypoints so the route can be followed in any navigation app.
func ToGPX(r Route) ([]byte, error) {
	doc := gpx.GPX{
		Version: "1.1",
		Creator: "letterwalk",
		Name:    r.Name,
	}

	for _, wp := range r.Waypoints {
		doc.Waypoints = append(doc.Waypoints, gpx.GPXPoint{
			Point:       gpx.Point{Latitude: wp.Location.Lat, Longitude: wp.Location.Lon},
			Name:        wp.Name,
			Description: wp.Description,
			Type:        string(wp.Category),
		})
	}

	if len(r.Geometry) > 0 {
		segment := gpx.GPXTrackSegment{}
		for _, c := range r.Geometry {
			segment.Points = append(segment.Points, gpx.GPXPoint{
				Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lon},
			})
		}
		doc.Tracks = append(doc.Tracks, gpx.GPXTrack{
			Name:     r.Name,
			Segments: []gpx.GPXTrackSegment{segment},
		})
	}

	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
