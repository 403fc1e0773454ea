package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
)

type entry struct {
	mu      sync.Mutex
	sess    *Session
	evicted bool
}

// Manager owns all sessions. The zero value is not usable; call NewManager.
type Manager struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for LastSeen bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs an empty in-memory session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire locks the user's session, creating it if needed. The caller must invoke
// release exactly once; until then other Acquire calls for the same user block.
func (m *Manager) Acquire(userID int64) (*Session, func()) {
	for {
		m.mu.Lock()
		e, ok := m.entries[userID]
		if !ok {
			e = &entry{sess: newSession(userID, m.now())}
			m.entries[userID] = e
			metrics.SessionsActive.Set(float64(len(m.entries)))
		}
		m.mu.Unlock()

		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		var once sync.Once
		return e.sess, func() {
			once.Do(func() {
				e.sess.LastSeen = m.now()
				e.mu.Unlock()
			})
		}
	}
}

// Peek returns a snapshot of the session without creating one.
func (m *Manager) Peek(userID int64) (Session, bool) {
	m.mu.Lock()
	e, ok := m.entries[userID]
	m.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return Session{}, false
	}
	return e.sess.clone(), true
}

// InProgress reports whether the user has a pending listing creation.
func (m *Manager) InProgress(userID int64) bool {
	s, ok := m.Peek(userID)
	return ok && s.HasPending()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Evict removes sessions idle for longer than idle. Sessions currently held are skipped.
func (m *Manager) Evict(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.sess.LastSeen.Before(cutoff) {
			e.evicted = true
			delete(m.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	metrics.SessionsActive.Set(float64(len(m.entries)))
	return removed
}

// RunEviction evicts idle sessions every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Evict(idle); n > 0 {
				logger.Debug(ctx, "state", "session.evict",
					slog.Int("evicted", n),
					slog.Int("remaining", m.Len()),
				)
			}
		}
	}
}
