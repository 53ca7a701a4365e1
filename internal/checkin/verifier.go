package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-letterwalk/internal/geolocation"
	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/session"
	"backend-letterwalk/internal/shared/geo"
	"backend-letterwalk/internal/store"

	"go.uber.org/zap"
)

const DefaultMaxDistanceM = 100.0

var (
	ErrUnknownWaypoint = errors.New("checkin: unknown waypoint")
	ErrInvalidLocation = errors.New("checkin: invalid location")
)

const (
	msgAccepted = "Check-in successful"
	msgTooFar   = "Too far from the waypoint, check-in failed"
	msgRepeated = "Already checked in at this waypoint"
)

// Recorder persists accepted check-ins. session.Manager implements it.
type Recorder interface {
	RecordAcceptedCheckIn(ctx context.Context, rec store.CheckInRecord) (session.Recorded, error)
}

// Outcome is the check-in result. A rejection for distance is an Outcome
// with Verified false, not an error.
type Outcome struct {
	Success   bool                 `json:"success"`
	Verified  bool                 `json:"verified"`
	Distance  float64              `json:"distance"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Duplicate bool                 `json:"duplicate,omitempty"`
	Completed bool                 `json:"route_completed,omitempty"`
	Record    *store.CheckInRecord `json:"record,omitempty"`
	Session   *store.State         `json:"session,omitempty"`
}

type Verifier struct {
	catalog     route.Catalog
	recorder    Recorder
	maxDistance float64
	now         func() time.Time
	log         *zap.Logger
}

func NewVerifier(catalog route.Catalog, recorder Recorder, maxDistanceM float64, log *zap.Logger) *Verifier {
	if maxDistanceM <= 0 {
		maxDistanceM = DefaultMaxDistanceM
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		catalog:     catalog,
		recorder:    recorder,
		maxDistance: maxDistanceM,
		now:         time.Now,
		log:         log,
	}
}

func (v *Verifier) MaxDistanceM() float64 {
	return v.maxDistance
}

// CheckInWithProvider acquires the live position first. Location failures
// come back as *geolocation.Error.
func (v *Verifier) CheckInWithProvider(ctx context.Context, p geolocation.Provider, userID, routeID, waypointID string) (Outcome, error) {
	live, err := p.CurrentLocation(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return v.CheckIn(ctx, userID, routeID, waypointID, live)
}

func (v *Verifier) CheckIn(ctx context.Context, userID, routeID, waypointID string, live geo.Coordinate) (Outcome, error) {
	if !live.Valid() {
		return Outcome{}, ErrInvalidLocation
	}

	wp, err := v.catalog.Waypoint(ctx, routeID, waypointID)
	if err != nil {
		if errors.Is(err, route.ErrWaypointNotFound) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownWaypoint, waypointID)
		}
		return Outcome{}, err
	}

	now := v.now()
	distance := geo.DistanceMeters(live, wp.Location)
	if distance > v.maxDistance {
		v.log.Info("check-in rejected",
			zap.String("user_id", userID),
			zap.String("route_id", routeID),
			zap.String("waypoint_id", waypointID),
			zap.Float64("distance_m", distance))
		return Outcome{
			Distance:  distance,
			Message:   msgTooFar,
			Timestamp: now,
		}, nil
	}

	res, err := v.recorder.RecordAcceptedCheckIn(ctx, store.CheckInRecord{
		UserID:     userID,
		RouteID:    routeID,
		WaypointID: wp.ID,
		Timestamp:  now,
		DistanceM:  distance,
		Verified:   true,
		Location:   live,
	})
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Success:   true,
		Verified:  true,
		Distance:  res.Record.DistanceM,
		Message:   msgAccepted,
		Timestamp: res.Record.Timestamp,
		Completed: res.Completed,
		Record:    &res.Record,
		Session:   &res.Session,
	}
	if !res.Created {
		out.Duplicate = true
		out.Message = msgRepeated
	}
	v.log.Info("check-in accepted",
		zap.String("user_id", userID),
		zap.String("route_id", res.Session.RouteID),
		zap.String("waypoint_id", wp.ID),
		zap.Float64("distance_m", distance),
		zap.Bool("duplicate", out.Duplicate))
	return out, nil
}
