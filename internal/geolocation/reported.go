package geolocation

import (
	"context"
	"errors"
	"time"

	"backend-letterwalk/internal/shared/geo"
)

// ReportedFix is a position, or a position error, acquired on the user's
// device and carried in a request.
type ReportedFix struct {
	Lat        *float64
	Lon        *float64
	AccuracyM  float64
	CapturedAt time.Time
	// ErrorCode is the device's GeolocationPositionError code, 0 when none.
	ErrorCode int
}

func (r ReportedFix) Acquire(_ context.Context, _ Options) (Fix, error) {
	if r.ErrorCode != 0 {
		return Fix{}, newError(KindFromCode(r.ErrorCode), errors.New("reported by device"))
	}
	if r.Lat == nil || r.Lon == nil {
		return Fix{}, newError(Unsupported, errors.New("no position reported"))
	}
	return Fix{
		Coordinate: geo.Coordinate{Lat: *r.Lat, Lon: *r.Lon},
		AccuracyM:  r.AccuracyM,
		Timestamp:  r.CapturedAt,
	}, nil
}
