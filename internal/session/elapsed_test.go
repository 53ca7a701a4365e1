package session

import (
	"testing"
	"time"

	"backend-letterwalk/internal/store"
)

func TestElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	done := start.Add(42 * time.Minute)
	now := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		st   store.State
		want int64
	}{
		{"not started", store.State{Status: store.NotStarted, StartedAt: start}, 0},
		{"running", store.State{Status: store.InProgress, StartedAt: start}, 7200},
		{"clock behind start", store.State{Status: store.InProgress, StartedAt: now.Add(time.Minute)}, 0},
		{"completed is frozen", store.State{Status: store.Completed, StartedAt: start, CompletedAt: &done}, 2520},
		{"completed without timestamps", store.State{Status: store.Completed, ElapsedSeconds: 99}, 99},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.st, now); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestElapsedMonotonicWhileRunning(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	st := store.State{Status: store.InProgress, StartedAt: start}
	prev := int64(-1)
	for i := 0; i < 10; i++ {
		got := Elapsed(st, start.Add(time.Duration(i)*700*time.Millisecond))
		if got < prev {
			t.Fatalf("elapsed went backwards: %d after %d", got, prev)
		}
		prev = got
	}
}
