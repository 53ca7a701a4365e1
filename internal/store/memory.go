package store

import (
	"context"
	"sync"
)

// Memory keeps state in process. Used when no Redis or Postgres is configured.
type Memory struct {
	mu     sync.RWMutex
	states map[Key]State
}

func NewMemory() *Memory {
	return &Memory{states: map[Key]State{}}
}

func (m *Memory) Load(_ context.Context, key Key) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[key]
	if !ok {
		return State{}, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *Memory) Save(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Key()] = state.Clone()
	return nil
}

func (m *Memory) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}
