package session

import (
	"time"

	"backend-letterwalk/internal/store"
)

// Elapsed projects the session duration at now: zero before the start,
// running while in progress, frozen once completed.
func Elapsed(st store.State, now time.Time) int64 {
	switch st.Status {
	case store.InProgress:
		if st.StartedAt.IsZero() || now.Before(st.StartedAt) {
			return 0
		}
		return wholeSeconds(now.Sub(st.StartedAt))
	case store.Completed:
		if st.CompletedAt != nil && !st.StartedAt.IsZero() {
			return wholeSeconds(st.CompletedAt.Sub(st.StartedAt))
		}
		return st.ElapsedSeconds
	default:
		return 0
	}
}

func wholeSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
