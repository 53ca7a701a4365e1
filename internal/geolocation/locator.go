package geolocation

import (
	"context"
	"errors"
	"time"

	"backend-letterwalk/internal/shared/geo"
)

const DefaultTimeout = 10 * time.Second

type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is the oldest cached position a source may return.
	MaximumAge time.Duration
	// ClockSkew tolerates fixes stamped by another device's clock.
	ClockSkew time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      DefaultTimeout,
		MaximumAge:   0,
	}
}

type Fix struct {
	Coordinate geo.Coordinate
	AccuracyM  float64
	Timestamp  time.Time
}

// Source acquires a raw position fix, e.g. from a device.
type Source interface {
	Acquire(ctx context.Context, opts Options) (Fix, error)
}

type SourceFunc func(ctx context.Context, opts Options) (Fix, error)

func (f SourceFunc) Acquire(ctx context.Context, opts Options) (Fix, error) {
	return f(ctx, opts)
}

type Provider interface {
	CurrentLocation(ctx context.Context) (geo.Coordinate, error)
}

// Locator turns a Source into a Provider with a bounded acquisition time,
// freshness checks and error classification.
type Locator struct {
	source Source
	opts   Options
	now    func() time.Time
}

func NewLocator(source Source, opts Options) *Locator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Locator{source: source, opts: opts, now: time.Now}
}

type acquireResult struct {
	fix Fix
	err error
}

func (l *Locator) CurrentLocation(ctx context.Context) (geo.Coordinate, error) {
	if l.source == nil {
		return geo.Coordinate{}, newError(Unsupported, nil)
	}
	requestedAt := l.now()

	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	results := make(chan acquireResult, 1)
	go func() {
		fix, err := l.source.Acquire(ctx, l.opts)
		results <- acquireResult{fix: fix, err: err}
	}()

	select {
	case <-ctx.Done():
		return geo.Coordinate{}, classify(ctx.Err())
	case res := <-results:
		if res.err != nil {
			return geo.Coordinate{}, classify(res.err)
		}
		return l.accept(res.fix, requestedAt)
	}
}

func (l *Locator) accept(fix Fix, requestedAt time.Time) (geo.Coordinate, error) {
	if !fix.Coordinate.Valid() {
		return geo.Coordinate{}, newError(PositionUnavailable, errors.New("invalid coordinate"))
	}
	if fix.Timestamp.IsZero() {
		return geo.Coordinate{}, newError(PositionUnavailable, errors.New("position has no timestamp"))
	}
	oldest := requestedAt.Add(-l.opts.MaximumAge - l.opts.ClockSkew)
	if fix.Timestamp.Before(oldest) {
		return geo.Coordinate{}, newError(PositionUnavailable, errors.New("stale position"))
	}
	return fix.Coordinate, nil
}

func classify(err error) error {
	if locErr, ok := AsError(err); ok {
		return locErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(Timeout, err)
	}
	return newError(PositionUnavailable, err)
}
