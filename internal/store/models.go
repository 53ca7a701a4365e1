package store

import (
	"time"

	"backend-letterwalk/internal/shared/geo"
)

type Status string

const (
	NotStarted Status = "not_started"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

type Key struct {
	UserID  string
	RouteID string
}

func (k Key) String() string {
	return k.UserID + ":" + k.RouteID
}

type CheckInRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	RouteID    string         `json:"route_id"`
	WaypointID string         `json:"waypoint_id"`
	Timestamp  time.Time      `json:"timestamp"`
	DistanceM  float64        `json:"distance_m"`
	Verified   bool           `json:"verified"`
	Location   geo.Coordinate `json:"location"`
}

// State is everything persisted for one (user, route) pair.
type State struct {
	UserID         string          `json:"user_id"`
	RouteID        string          `json:"route_id"`
	Status         Status          `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
	CheckIns       []CheckInRecord `json:"checkins"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Empty is the state of a pair that has never been started.
func Empty(key Key) State {
	return State{UserID: key.UserID, RouteID: key.RouteID, Status: NotStarted}
}

func (s State) Key() Key {
	return Key{UserID: s.UserID, RouteID: s.RouteID}
}

func (s State) CheckIn(waypointID string) (CheckInRecord, bool) {
	for _, rec := range s.CheckIns {
		if rec.WaypointID == waypointID {
			return rec, true
		}
	}
	return CheckInRecord{}, false
}

func (s State) CheckinWaypointIDs() []string {
	ids := make([]string, 0, len(s.CheckIns))
	for _, rec := range s.CheckIns {
		ids = append(ids, rec.WaypointID)
	}
	return ids
}

// Clone returns a copy that shares no slices or pointers with s.
func (s State) Clone() State {
	out := s
	out.CheckIns = append([]CheckInRecord(nil), s.CheckIns...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
