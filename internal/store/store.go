package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("store: state not found")
	ErrCorrupt  = errors.New("store: state unreadable")
)

// Store persists session state per (user, route). Save replaces the whole
// state in one write; Clear removes every key of the pair.
type Store interface {
	Load(ctx context.Context, key Key) (State, error)
	Save(ctx context.Context, state State) error
	Clear(ctx context.Context, key Key) error
}
