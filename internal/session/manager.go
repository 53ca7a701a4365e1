package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/shared/geo"
	"backend-letterwalk/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotStarted = errors.New("session: route not started")

const (
	DefaultTickInterval  = time.Second
	DefaultMirrorTimeout = 5 * time.Second
)

// Mirror receives best-effort copies of session transitions.
type Mirror interface {
	StartRoute(ctx context.Context, userID, shape string) error
	CheckIn(ctx context.Context, userID, shape, waypointID string, at geo.Coordinate) error
	CompleteRoute(ctx context.Context, userID, shape string) error
}

// CompletionListener is told once per transition into Completed.
type CompletionListener interface {
	RouteCompleted(ctx context.Context, state store.State)
}

type Manager struct {
	catalog       route.Catalog
	store         store.Store
	mirror        Mirror
	listeners     []CompletionListener
	now           func() time.Time
	tick          time.Duration
	mirrorTimeout time.Duration
	log           *zap.Logger
	wg            sync.WaitGroup
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMirror(mirror Mirror) Option {
	return func(m *Manager) { m.mirror = mirror }
}

func WithListener(l CompletionListener) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, l) }
}

func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tick = d
		}
	}
}

func WithMirrorTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.mirrorTimeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func NewManager(catalog route.Catalog, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		catalog:       catalog,
		store:         st,
		now:           time.Now,
		tick:          DefaultTickInterval,
		mirrorTimeout: DefaultMirrorTimeout,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartRoute replaces whatever was stored for the pair with a fresh
// in-progress session. Restarting discards earlier check-ins.
func (m *Manager) StartRoute(ctx context.Context, userID, routeID string) (store.State, error) {
	r, err := m.catalog.Route(ctx, routeID)
	if err != nil {
		return store.State{}, err
	}

	now := m.now()
	st := store.Empty(store.Key{UserID: userID, RouteID: r.ID})
	st.Status = store.InProgress
	st.StartedAt = now
	st.UpdatedAt = now
	if err := m.store.Save(ctx, st); err != nil {
		return store.State{}, err
	}

	m.log.Info("route started", zap.String("user_id", userID), zap.String("route_id", r.ID))
	if m.mirror != nil {
		m.dispatch("route start", func(ctx context.Context) error {
			return m.mirror.StartRoute(ctx, userID, r.Shape)
		})
	}
	return st, nil
}

// Recorded is the result of RecordAcceptedCheckIn. Created is false when the
// waypoint was already checked in and Record is the stored one.
type Recorded struct {
	Record    store.CheckInRecord
	Created   bool
	Completed bool
	Session   store.State
}

// RecordAcceptedCheckIn stores a verified check-in once and completes the
// session when it covers the last missing waypoint.
func (m *Manager) RecordAcceptedCheckIn(ctx context.Context, rec store.CheckInRecord) (Recorded, error) {
	r, err := m.catalog.Route(ctx, rec.RouteID)
	if err != nil {
		return Recorded{}, err
	}
	rec.RouteID = r.ID

	st := m.load(ctx, store.Key{UserID: rec.UserID, RouteID: r.ID})
	if st.Status == store.NotStarted {
		return Recorded{}, ErrNotStarted
	}

	now := m.now()
	if existing, ok := st.CheckIn(rec.WaypointID); ok {
		st.ElapsedSeconds = Elapsed(st, now)
		return Recorded{Record: existing, Session: st}, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	rec.Verified = true
	st.CheckIns = append(st.CheckIns, rec)

	completed := false
	if st.Status == store.InProgress && coversAll(r, st) {
		completed = true
		st.Status = store.Completed
		st.CompletedAt = &now
		st.ElapsedSeconds = wholeSeconds(now.Sub(st.StartedAt))
	}
	st.UpdatedAt = now
	if err := m.store.Save(ctx, st); err != nil {
		return Recorded{}, err
	}

	if m.mirror != nil {
		userID, shape, wpID, at := rec.UserID, r.Shape, rec.WaypointID, rec.Location
		m.dispatch("checkin", func(ctx context.Context) error {
			return m.mirror.CheckIn(ctx, userID, shape, wpID, at)
		})
	}
	if completed {
		m.log.Info("route completed",
			zap.String("user_id", st.UserID),
			zap.String("route_id", st.RouteID),
			zap.Int64("elapsed_seconds", st.ElapsedSeconds))
		for _, l := range m.listeners {
			l.RouteCompleted(ctx, st.Clone())
		}
		if m.mirror != nil {
			userID, shape := st.UserID, r.Shape
			m.dispatch("route complete", func(ctx context.Context) error {
				return m.mirror.CompleteRoute(ctx, userID, shape)
			})
		}
	} else {
		st.ElapsedSeconds = Elapsed(st, now)
	}
	return Recorded{Record: rec, Created: true, Completed: completed, Session: st}, nil
}

// ResetRoute abandons the pair and returns it to NotStarted.
func (m *Manager) ResetRoute(ctx context.Context, userID, routeID string) error {
	r, err := m.catalog.Route(ctx, routeID)
	if err != nil {
		return err
	}
	return m.store.Clear(ctx, store.Key{UserID: userID, RouteID: r.ID})
}

// Get returns the session with ElapsedSeconds projected to now. Unreadable
// state is reported as NotStarted.
func (m *Manager) Get(ctx context.Context, userID, routeID string) (store.State, error) {
	r, err := m.catalog.Route(ctx, routeID)
	if err != nil {
		return store.State{}, err
	}
	st := m.load(ctx, store.Key{UserID: userID, RouteID: r.ID})
	st.ElapsedSeconds = Elapsed(st, m.now())
	return st, nil
}

// WatchElapsed calls fn with the elapsed seconds once immediately and then
// on every tick while the session is in progress. It returns when the
// session leaves InProgress or ctx is done.
func (m *Manager) WatchElapsed(ctx context.Context, userID, routeID string, fn func(int64)) error {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		st, err := m.Get(ctx, userID, routeID)
		if err != nil {
			return err
		}
		if st.Status != store.InProgress {
			return nil
		}
		fn(st.ElapsedSeconds)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Wait blocks until every mirror dispatch has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// load never fails: missing, corrupt or unreachable state reads as NotStarted.
func (m *Manager) load(ctx context.Context, key store.Key) store.State {
	st, err := m.store.Load(ctx, key)
	switch {
	case err == nil:
		return st
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, store.ErrCorrupt):
		m.log.Warn("discarding unreadable session", zap.String("key", key.String()), zap.Error(err))
	default:
		m.log.Warn("session store read failed, treating as not started", zap.String("key", key.String()), zap.Error(err))
	}
	return store.Empty(key)
}

func (m *Manager) dispatch(op string, fn func(ctx context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.mirrorTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.log.Warn("backend mirror failed", zap.String("op", op), zap.Error(err))
			return
		}
		m.log.Debug("backend mirror ok", zap.String("op", op))
	}()
}

func coversAll(r route.Route, st store.State) bool {
	for _, id := range r.WaypointIDs() {
		rec, ok := st.CheckIn(id)
		if !ok || !rec.Verified {
			return false
		}
	}
	return true
}
