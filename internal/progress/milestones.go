package progress

import (
	"context"
	"sync"
	"time"

	"backend-letterwalk/internal/store"

	"go.uber.org/zap"
)

// Certifier issues the completion certificate for an account.
type Certifier interface {
	RequestCertificate(ctx context.Context, userID, shape string) ([]byte, error)
}

// Milestones listens for route completions and requests the certificate
// once per account, when a completion first finishes the whole series.
type Milestones struct {
	agg       *Aggregator
	certifier Certifier
	timeout   time.Duration
	log       *zap.Logger

	mu        sync.Mutex
	certified map[string]bool
	wg        sync.WaitGroup
}

func NewMilestones(agg *Aggregator, certifier Certifier, timeout time.Duration, log *zap.Logger) *Milestones {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Milestones{agg: agg, certifier: certifier, timeout: timeout, log: log, certified: map[string]bool{}}
}

func (m *Milestones) RouteCompleted(_ context.Context, st store.State) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		snap, err := m.agg.Aggregate(ctx, st.UserID)
		if err != nil {
			m.log.Warn("milestone check failed", zap.String("user_id", st.UserID), zap.Error(err))
			return
		}
		if !snap.AllComplete {
			return
		}

		shape := st.RouteID
		for _, rp := range snap.Routes {
			if rp.RouteID == st.RouteID {
				shape = rp.Shape
			}
		}
		if !m.claim(st.UserID) {
			m.log.Debug("certificate already requested", zap.String("user_id", st.UserID))
			return
		}
		m.log.Info("all routes completed", zap.String("user_id", st.UserID))
		if m.certifier == nil {
			return
		}
		cert, err := m.certifier.RequestCertificate(ctx, st.UserID, shape)
		if err != nil {
			m.release(st.UserID)
			m.log.Warn("certificate request failed", zap.String("user_id", st.UserID), zap.Error(err))
			return
		}
		m.log.Info("certificate issued", zap.String("user_id", st.UserID), zap.Int("bytes", len(cert)))
	}()
}

func (m *Milestones) Wait() {
	m.wg.Wait()
}

// claim reports whether the caller is the first to finish the series for
// userID. A failed request releases the claim so a later completion retries.
func (m *Milestones) claim(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.certified[userID] {
		return false
	}
	m.certified[userID] = true
	return true
}

func (m *Milestones) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.certified, userID)
}
