package progress

import (
	"context"
	"errors"
	"time"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/store"

	"go.uber.org/zap"
)

// Aggregator reads the store on every call; there is no cached snapshot.
type Aggregator struct {
	catalog route.Catalog
	store   store.Store
	now     func() time.Time
	log     *zap.Logger
}

func NewAggregator(catalog route.Catalog, st store.Store, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{catalog: catalog, store: st, now: time.Now, log: log}
}

func (a *Aggregator) Aggregate(ctx context.Context, userID string) (Snapshot, error) {
	routes, err := a.catalog.Routes(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	states := make(map[string]store.State, len(routes))
	for _, r := range routes {
		states[r.ID] = a.load(ctx, store.Key{UserID: userID, RouteID: r.ID})
	}
	return Compute(userID, routes, states, a.now()), nil
}

func (a *Aggregator) Route(ctx context.Context, userID, routeID string) (RouteProgress, error) {
	r, err := a.catalog.Route(ctx, routeID)
	if err != nil {
		return RouteProgress{}, err
	}
	return ComputeRoute(r, a.load(ctx, store.Key{UserID: userID, RouteID: r.ID}), a.now()), nil
}

func (a *Aggregator) load(ctx context.Context, key store.Key) store.State {
	st, err := a.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warn("progress read failed, counting as not started", zap.String("key", key.String()), zap.Error(err))
		}
		return store.Empty(key)
	}
	return st
}
