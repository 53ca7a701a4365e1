package store

import (
	"context"
	"encoding/json"
	"time"

	"backend-letterwalk/internal/stream"

	"go.uber.org/zap"
)

type ChangeKind string

const (
	Saved   ChangeKind = "saved"
	Cleared ChangeKind = "cleared"
)

type Change struct {
	UserID  string     `json:"user_id"`
	RouteID string     `json:"route_id"`
	Kind    ChangeKind `json:"kind"`
	Status  Status     `json:"status"`
	At      time.Time  `json:"at"`
}

type Broadcaster interface {
	Broadcast(topic string, payload []byte)
	Subscribe(topic string, fn func([]byte)) func()
}

// Observable publishes a Change on the route and account topics after every
// successful Save and Clear.
type Observable struct {
	Store
	hub Broadcaster
	log *zap.Logger
	now func() time.Time
}

func NewObservable(inner Store, hub Broadcaster, log *zap.Logger) *Observable {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observable{Store: inner, hub: hub, log: log, now: time.Now}
}

func (o *Observable) Save(ctx context.Context, state State) error {
	if err := o.Store.Save(ctx, state); err != nil {
		return err
	}
	o.publish(Change{UserID: state.UserID, RouteID: state.RouteID, Kind: Saved, Status: state.Status, At: o.now()})
	return nil
}

func (o *Observable) Clear(ctx context.Context, key Key) error {
	if err := o.Store.Clear(ctx, key); err != nil {
		return err
	}
	o.publish(Change{UserID: key.UserID, RouteID: key.RouteID, Kind: Cleared, Status: NotStarted, At: o.now()})
	return nil
}

// OnChange watches every route of the user when routeID is empty.
func (o *Observable) OnChange(userID, routeID string, fn func(Change)) func() {
	return o.hub.Subscribe(stream.Topic(userID, routeID), func(payload []byte) {
		var ch Change
		if err := json.Unmarshal(payload, &ch); err != nil {
			return
		}
		fn(ch)
	})
}

func (o *Observable) publish(ch Change) {
	payload, err := json.Marshal(ch)
	if err != nil {
		o.log.Error("encode change", zap.Error(err))
		return
	}
	o.hub.Broadcast(stream.Topic(ch.UserID, ch.RouteID), payload)
	o.hub.Broadcast(stream.Topic(ch.UserID, ""), payload)
}
